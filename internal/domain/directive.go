package domain

// MetaDirective is one property/content pair destined for document-head
// metadata. The core emits Open Graph property names plus the Twitter card
// selector; the serving layer duplicates families as needed.
type MetaDirective struct {
	Property string
	Content  string
}

// Common directive property names.
const (
	PropTitle       = "og:title"
	PropDescription = "og:description"
	PropSiteName    = "og:site_name"
	PropURL         = "og:url"
	PropType        = "og:type"
	PropImage       = "og:image"
	PropImageWidth  = "og:image:width"
	PropImageHeight = "og:image:height"
	PropVideo       = "og:video"
	PropVideoWidth  = "og:video:width"
	PropVideoHeight = "og:video:height"
	PropVideoType   = "og:video:type"
	PropCard        = "twitter:card"
)

// Directives is an ordered set of meta directives.
type Directives []MetaDirective

// Add appends a directive and returns the extended set.
func (d Directives) Add(property, content string) Directives {
	return append(d, MetaDirective{Property: property, Content: content})
}

// Find returns the content of the first directive with the given property
// and whether one was present.
func (d Directives) Find(property string) (string, bool) {
	for _, m := range d {
		if m.Property == property {
			return m.Content, true
		}
	}
	return "", false
}
