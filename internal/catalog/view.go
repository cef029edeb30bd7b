package catalog

import "net/url"

const DefaultDescription = "No description available."

// ListItem is one card of the list view.
type ListItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Price      Number `json:"price"`
	Popularity Number `json:"popularity"`
	DetailPath string `json:"detail_path,omitempty"`
}

type ListView struct {
	Items      []ListItem `json:"items"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
	TotalItems int        `json:"total_items"`
}

type DetailView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Price       Number `json:"price"`
	Popularity  Number `json:"popularity"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type FiltersView struct {
	Price      []Option `json:"price"`
	Popularity []Option `json:"popularity"`
	Sort       []Option `json:"sort"`
}

// Renderer applies presentation defaults. The pipeline never sees them.
type Renderer struct {
	PlaceholderImage string
}

func (v Renderer) List(p Page, page, pageSize int) ListView {
	items := make([]ListItem, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, ListItem{
			ID:         it.ID,
			Title:      it.Title,
			Price:      it.Price,
			Popularity: it.Popularity,
			DetailPath: DetailPath(it.ID),
		})
	}
	return ListView{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: p.TotalPages,
		TotalItems: p.TotalItems,
	}
}

func (v Renderer) Detail(p Product) DetailView {
	d := DetailView{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Popularity:  p.Popularity,
		Description: p.Description,
		Image:       p.Image,
	}
	if d.Description == "" {
		d.Description = DefaultDescription
	}
	if d.Image == "" {
		d.Image = v.PlaceholderImage
	}
	return d
}

// DetailPath is the detail route for id, or "" when there is no id to
// navigate to.
func DetailPath(id string) string {
	if id == "" {
		return ""
	}
	return "/products/" + url.PathEscape(id)
}

func Filters() FiltersView {
	return FiltersView{
		Price: []Option{
			{Value: "all", Label: "All"},
			{Value: "0-5000", Label: "0 - 5000"},
			{Value: "5000-10000", Label: "5000 - 10000"},
			{Value: "10000-20000", Label: "10000 - 20000"},
			{Value: "20000-inf", Label: "20000+"},
		},
		Popularity: []Option{
			{Value: "all", Label: "All"},
			{Value: "0-10000", Label: "0 - 10000"},
			{Value: "10000-30000", Label: "10000 - 30000"},
			{Value: "30000-50000", Label: "30000 - 50000"},
			{Value: "50000-inf", Label: "50000+"},
		},
		Sort: []Option{
			{Value: string(SortPriceAsc), Label: "Price (Low to High)"},
			{Value: string(SortPriceDesc), Label: "Price (High to Low)"},
			{Value: string(SortPopularityAsc), Label: "Popularity (Low to High)"},
			{Value: string(SortPopularityDesc), Label: "Popularity (High to Low)"},
		},
	}
}
