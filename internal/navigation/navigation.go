package navigation

// PageID define um identificador único para cada página da aplicação.
type PageID int

const (
	PageNone PageID = iota // Nenhuma página visitada ainda
	PageHome
	PageDrivers
	PageRegister
)

// NavItem é um item da barra lateral.
type NavItem struct {
	ID    PageID
	Title string
	Path  string
}

var pages = map[PageID]NavItem{
	PageHome:     {ID: PageHome, Title: "Dashboard", Path: "/"},
	PageDrivers:  {ID: PageDrivers, Title: "Motoristas", Path: "/driver"},
	PageRegister: {ID: PageRegister, Title: "Cadastre-se", Path: "/driver/register"},
}

// Path devolve a rota do navegador da página.
func (id PageID) Path() string {
	if item, ok := pages[id]; ok {
		return item.Path
	}
	return "/"
}

// Title devolve o título da página (também usado na barra lateral).
func (id PageID) Title() string {
	if item, ok := pages[id]; ok {
		return item.Title
	}
	return ""
}

func (id PageID) String() string {
	if t := id.Title(); t != "" {
		return t
	}
	return "Nenhuma"
}

// Sidebar devolve os itens da barra lateral, na ordem de exibição.
func Sidebar() []NavItem {
	return []NavItem{pages[PageHome], pages[PageDrivers], pages[PageRegister]}
}

// PageForPath devolve a página servida em `path`, ou PageNone.
func PageForPath(path string) PageID {
	for id, item := range pages {
		if item.Path == path {
			return id
		}
	}
	return PageNone
}
