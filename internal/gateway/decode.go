package gateway

import (
	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
)

// DecodeQuestion builds a question from its vertex. The label is the question type.
func DecodeQuestion(v schema.Vertex) (schema.Question, error) {
	qt := schema.QuestionType(v.Label)
	if _, ok := schema.ValidQuestionTypes[qt]; !ok {
		return schema.Question{}, contract.ConfigErrorf("question %q has unknown type %q", v.ID, v.Label)
	}
	q := schema.Question{ID: v.ID, Type: qt}
	if qt == schema.TerminalQuestion {
		return q, nil
	}
	q.Text = v.Prop(schema.PropText)
	q.Help = v.Prop(schema.PropHelp)
	return q, nil
}

// DecodeProposition builds a proposition from an edge of the questionnaire or of an
// answer chain. Next is left to the caller.
func DecodeProposition(e schema.Edge) (schema.Proposition, error) {
	coefs, err := schema.ParseCoefficients(e.Prop(schema.PropCoefficients))
	if err != nil {
		return schema.Proposition{}, contract.ConfigErrorf("proposition %q: %v", e.ID, err)
	}
	id := e.Prop(schema.PropID)
	if id == "" {
		id = e.ID
	}
	return schema.Proposition{
		ID:           id,
		Text:         e.Prop(schema.PropText),
		Help:         e.Prop(schema.PropHelp),
		Restricted:   schema.ParseFlag(e.Prop(schema.PropRestricted)),
		Metrics:      schema.SplitList(e.Prop(schema.PropMetric)),
		Coefficients: coefs,
	}, nil
}

// EncodeProposition is the inverse of DecodeProposition.
func EncodeProposition(p schema.Proposition) map[string]string {
	props := map[string]string{
		schema.PropID:         p.ID,
		schema.PropText:       p.Text,
		schema.PropRestricted: schema.FormatFlag(p.Restricted),
	}
	if p.Help != "" {
		props[schema.PropHelp] = p.Help
	}
	if len(p.Coefficients) > 0 {
		props[schema.PropCoefficients] = schema.FormatCoefficients(p.Coefficients)
	}
	if len(p.Metrics) > 0 {
		props[schema.PropMetric] = schema.JoinList(p.Metrics)
	}
	return props
}
