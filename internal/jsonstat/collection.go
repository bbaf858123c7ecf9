package jsonstat

// Collection is a checked class "collection" document: identity and link
// metadata only, no dimensional data.
type Collection struct {
	Version   Version
	Href      *string
	Label     *string
	Source    *string
	Updated   *Updated
	Link      Links
	Note      []string
	Extension Extension
}

// ToCollection narrows env to a Collection. The class must be "collection"
// and category must be absent. Dataset members that may also be present on
// env (id, size, value...) are not carried over.
//
// As with ToDataset, env is untouched on failure and reset on success.
func ToCollection(env *Envelope) (*Collection, error) {
	if env == nil || env.Class != ClassCollection {
		return nil, classMismatch(ClassCollection, classOf(env))
	}
	if env.Category != nil {
		return nil, forbiddenField(ClassCollection, "category")
	}
	c := &Collection{
		Version:   env.Version,
		Href:      env.Href,
		Label:     env.Label,
		Source:    env.Source,
		Updated:   env.Updated,
		Link:      env.Link,
		Note:      env.Note,
		Extension: env.Extension,
	}
	*env = Envelope{}
	return c, nil
}

// Items returns the links under the "item" relation, in document order.
func (c *Collection) Items() []Link {
	return c.Link["item"]
}

func (c *Collection) envelope() *Envelope {
	v := c.Version
	if v == "" {
		v = Version2
	}
	return &Envelope{
		Version:   v,
		Class:     ClassCollection,
		Href:      c.Href,
		Label:     c.Label,
		Source:    c.Source,
		Updated:   c.Updated,
		Link:      c.Link,
		Note:      c.Note,
		Extension: c.Extension,
	}
}

func (c *Collection) MarshalJSON() ([]byte, error) { return c.envelope().MarshalJSON() }
