package gateway

import (
	"context"
	"fmt"
	"io"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/schema"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Questionnaire is the YAML definition of a question graph.
type Questionnaire struct {
	Root      string               `yaml:"root"`
	Outputs   []string             `yaml:"outputs"`
	Questions []QuestionDefinition `yaml:"questions"`
}

// QuestionDefinition is one question of a Questionnaire.
type QuestionDefinition struct {
	ID           string                  `yaml:"id"`
	Type         string                  `yaml:"type"`
	Text         string                  `yaml:"text"`
	Help         string                  `yaml:"help"`
	Propositions []PropositionDefinition `yaml:"propositions"`
}

// PropositionDefinition is one answer choice of a QuestionDefinition.
type PropositionDefinition struct {
	ID         string    `yaml:"id"`
	Text       string    `yaml:"text"`
	Help       string    `yaml:"help"`
	Next       string    `yaml:"next"`
	Coef       []float64 `yaml:"coef"`
	Metrics    []string  `yaml:"metrics"`
	Restricted bool      `yaml:"restricted"`
}

// ImportSummary counts what an import wrote.
type ImportSummary struct {
	Questions    int
	Propositions int
}

// ParseQuestionnaire decodes and checks a YAML questionnaire.
func ParseQuestionnaire(r io.Reader) (Questionnaire, error) {
	var qn Questionnaire
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&qn); err != nil {
		return Questionnaire{}, contract.ConfigErrorf("invalid questionnaire: %v", err)
	}
	if err := qn.Check(); err != nil {
		return Questionnaire{}, err
	}
	return qn, nil
}

// Check verifies that the questionnaire forms a usable graph.
func (qn *Questionnaire) Check() error {
	if qn.Root == "" {
		return contract.ConfigErrorf("questionnaire has no root")
	}
	if len(qn.Outputs) == 0 {
		return contract.ConfigErrorf("questionnaire has no outputs")
	}

	ids := make(map[string]schema.QuestionType, len(qn.Questions))
	for _, q := range qn.Questions {
		if q.ID == "" {
			return contract.ConfigErrorf("question without id")
		}
		if _, dup := ids[q.ID]; dup {
			return contract.ConfigErrorf("question %q is defined twice", q.ID)
		}
		qt := schema.QuestionType(q.Type)
		if _, ok := schema.ValidQuestionTypes[qt]; !ok {
			return contract.ConfigErrorf("question %q has unknown type %q", q.ID, q.Type)
		}
		ids[q.ID] = qt
	}
	if _, ok := ids[qn.Root]; !ok {
		return contract.ConfigErrorf("root question %q is not defined", qn.Root)
	}

	for _, q := range qn.Questions {
		qt := ids[q.ID]
		if qt == schema.TerminalQuestion {
			if len(q.Propositions) > 0 {
				return contract.ConfigErrorf("terminal question %q cannot have propositions", q.ID)
			}
			continue
		}
		if len(q.Propositions) == 0 {
			return contract.ConfigErrorf("question %q has no propositions", q.ID)
		}
		targets := make(map[string]struct{})
		for i, p := range q.Propositions {
			if p.Text == "" && qt != schema.OpenQuestion {
				return contract.ConfigErrorf("proposition %d of question %q has no text", i+1, q.ID)
			}
			if _, ok := ids[p.Next]; !ok {
				return contract.ConfigErrorf("proposition %d of question %q points at unknown question %q", i+1, q.ID, p.Next)
			}
			if len(p.Coef) > 0 && len(p.Coef) != len(qn.Outputs) {
				return contract.ConfigErrorf("proposition %d of question %q has %d coefficients for %d outputs", i+1, q.ID, len(p.Coef), len(qn.Outputs))
			}
			targets[p.Next] = struct{}{}
		}
		if (qt == schema.OpenQuestion || qt == schema.MultiChoice) && len(targets) > 1 {
			return contract.ConfigErrorf("%s question %q must lead to a single question", qt, q.ID)
		}
	}
	return nil
}

// ImportQuestionnaire writes a checked questionnaire into the store. Existing vertices
// and edges with the same ids are kept, so importing twice is harmless.
func (g *Gateway) ImportQuestionnaire(ctx context.Context, qn Questionnaire) (ImportSummary, error) {
	if err := qn.Check(); err != nil {
		return ImportSummary{}, err
	}
	if qn.Root != g.rootID {
		return ImportSummary{}, contract.ConfigErrorf("questionnaire root %q differs from configured root-question %q", qn.Root, g.rootID)
	}

	var summary ImportSummary
	for _, q := range qn.Questions {
		props := map[string]string{schema.PropID: q.ID}
		if q.Text != "" {
			props[schema.PropText] = q.Text
		}
		if q.Help != "" {
			props[schema.PropHelp] = q.Help
		}
		if q.ID == qn.Root {
			props[schema.PropOutputs] = schema.JoinList(qn.Outputs)
		}
		if err := g.EnsureVertex(ctx, schema.Vertex{ID: q.ID, Label: q.Type, Properties: props}); err != nil {
			return summary, fmt.Errorf("import question %q: %w", q.ID, err)
		}
		summary.Questions++
	}

	for _, q := range qn.Questions {
		for i, pd := range q.Propositions {
			p := schema.Proposition{
				ID:           pd.ID,
				Text:         pd.Text,
				Help:         pd.Help,
				Restricted:   pd.Restricted,
				Metrics:      pd.Metrics,
				Coefficients: pd.Coef,
			}
			if p.ID == "" {
				p.ID = fmt.Sprintf("%s.%d", q.ID, i+1)
			}
			edge := schema.Edge{
				ID:         q.ID + ">" + p.ID,
				Label:      schema.PropositionEdge,
				From:       q.ID,
				To:         pd.Next,
				Seq:        i,
				Properties: EncodeProposition(p),
			}
			if err := g.EnsureEdge(ctx, edge); err != nil {
				return summary, fmt.Errorf("import proposition %q: %w", edge.ID, err)
			}
			summary.Propositions++
		}
	}

	g.logger.Info("questionnaire imported",
		zap.Int("questions", summary.Questions),
		zap.Int("propositions", summary.Propositions))
	return summary, nil
}
