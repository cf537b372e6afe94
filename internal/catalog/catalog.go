package catalog

// Catalog bundles every static definition set a session needs. It is
// fetched once per session and immutable afterwards; lookups return
// ok=false for ids that reference nothing.
type Catalog struct {
	Buildings    []Building    `json:"buildings"`
	Upgrades     []Upgrade     `json:"upgrades"`
	Achievements []Achievement `json:"achievements"`
	SurgeTypes   []SurgeType   `json:"surgeTypes"`
	Talents      []Talent      `json:"talents"`
	Runes        []Rune        `json:"runes"`
}

// Empty reports whether no building definitions are loaded yet. The
// production model short-circuits on an empty catalog so the engine is
// safe to run before static data arrives.
func (c Catalog) Empty() bool {
	return len(c.Buildings) == 0
}

func (c Catalog) Building(id string) (Building, bool) {
	for _, b := range c.Buildings {
		if b.ID == id {
			return b, true
		}
	}
	return Building{}, false
}

func (c Catalog) Upgrade(id string) (Upgrade, bool) {
	for _, u := range c.Upgrades {
		if u.ID == id {
			return u, true
		}
	}
	return Upgrade{}, false
}

func (c Catalog) Achievement(id string) (Achievement, bool) {
	for _, a := range c.Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

func (c Catalog) SurgeType(id string) (SurgeType, bool) {
	for _, s := range c.SurgeTypes {
		if s.ID == id {
			return s, true
		}
	}
	return SurgeType{}, false
}

func (c Catalog) Talent(id string) (Talent, bool) {
	for _, t := range c.Talents {
		if t.ID == id {
			return t, true
		}
	}
	return Talent{}, false
}

func (c Catalog) Rune(id string) (Rune, bool) {
	for _, r := range c.Runes {
		if r.ID == id {
			return r, true
		}
	}
	return Rune{}, false
}
