package schema

// Vertex is a labelled graph node with string properties.
type Vertex struct {
	ID         string            `json:"id"`
	Label      string            `json:"label"`
	Properties map[string]string `json:"properties"`
}

// Prop returns a property value, or the empty string.
func (v Vertex) Prop(key string) string {
	return v.Properties[key]
}

// Edge is a directed, labelled relation between two vertices.
// Seq orders the outgoing edges of a vertex.
type Edge struct {
	ID         string            `json:"id"`
	Label      string            `json:"label"`
	From       string            `json:"from"`
	To         string            `json:"to"`
	Seq        int               `json:"seq"`
	Properties map[string]string `json:"properties"`
}

// Prop returns a property value, or the empty string.
func (e Edge) Prop(key string) string {
	return e.Properties[key]
}
