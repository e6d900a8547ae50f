package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows any page can request.
	MaxLimit = 50
)

// Params holds page/limit inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Limits carries the configured default and maximum page sizes.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits returns the package defaults.
func DefaultLimits() Limits {
	return Limits{Default: DefaultLimit, Max: MaxLimit}
}

// Normalize clamps page to >= 1 and limit to [1, Max], substituting the
// default for non-positive limits.
func (l Limits) Normalize(p Params) Params {
	def, max := l.Default, l.Max
	if max <= 0 {
		max = MaxLimit
	}
	if def <= 0 || def > max {
		def = min(DefaultLimit, max)
	}

	out := p
	if out.Page < 1 {
		out.Page = 1
	}
	switch {
	case out.Limit <= 0:
		out.Limit = def
	case out.Limit > max:
		out.Limit = max
	}
	return out
}

// Normalize applies the package default limits.
func Normalize(p Params) Params {
	return DefaultLimits().Normalize(p)
}

// Offset returns the row offset for a normalized page.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// TotalPages returns ceil(total/limit), zero when there are no rows.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Page is a single page of results plus the counts needed to navigate.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewPage assembles a Page from a normalized request and the pre-paging total.
func NewPage[T any](items []T, total int64, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: TotalPages(total, p.Limit),
	}
}

// Map converts the items of a page while keeping its counts.
func Map[T, U any](in Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(in.Items))
	for _, item := range in.Items {
		out = append(out, fn(item))
	}
	return Page[U]{
		Items:      out,
		Total:      in.Total,
		Page:       in.Page,
		Limit:      in.Limit,
		TotalPages: in.TotalPages,
	}
}
