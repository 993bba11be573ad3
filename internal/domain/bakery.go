package domain

type Bakery struct {
	ID          string
	Name        string
	Description string
}

// Selection is the bakery a session is currently scoped to. The zero value
// means nothing is selected.
type Selection struct {
	bakery *Bakery
}

func NoneSelected() Selection {
	return Selection{}
}

func Selected(b Bakery) Selection {
	return Selection{bakery: &b}
}

func (s Selection) Bakery() (Bakery, bool) {
	if s.bakery == nil {
		return Bakery{}, false
	}
	return *s.bakery, true
}

func (s Selection) BakeryID() string {
	if s.bakery == nil {
		return ""
	}
	return s.bakery.ID
}

func (s Selection) IsSelected() bool {
	return s.bakery != nil
}
