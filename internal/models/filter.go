package models

// Размеры страниц списков техников.
const (
	DefaultPageSize = 6
	MaxPageSize     = 50
	// MaxPageNumber ограничивает смещение, чтобы оно не переполняло int.
	MaxPageNumber = 100000
)

// Допустимые значения сортировки списка техников.
var TechnicianOrderings = map[string]string{
	"rating_avg":        "tp.rating_avg ASC, tp.id ASC",
	"-rating_avg":       "tp.rating_avg DESC, tp.id ASC",
	"years_experience":  "tp.years_experience ASC, tp.id ASC",
	"-years_experience": "tp.years_experience DESC, tp.id ASC",
}

// DefaultOrdering сортировка по умолчанию.
const DefaultOrdering = "-rating_avg"

// TechnicianFilter параметры выборки списка техников.
type TechnicianFilter struct {
	Location string
	Skill    string
	SkillID  int64
	Search   string
	Ordering string
	Page
}

// AdminTechnicianFilter параметры административного списка техников.
// Nil-поля не фильтруют. Location и YearsExperience сравниваются точно.
type AdminTechnicianFilter struct {
	IsApproved      *bool
	Location        string
	YearsExperience *int
	Search          string
	Page
}

// SubscriptionFilter параметры административного списка подписок.
// Нулевые значения не фильтруют.
type SubscriptionFilter struct {
	Status string
	PlanID int64
	UserID int64
	Search string
	Page
}

// Page параметры пагинации.
type Page struct {
	Number int
	Size   int
}

// Normalize приводит номер и размер страницы к допустимым значениям.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset смещение первой записи страницы.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// PageResult страница результатов с общим количеством.
type PageResult[T any] struct {
	Count    int `json:"count"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Results  []T `json:"results"`
}
