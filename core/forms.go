package core

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/internal/gateway"
	"github.com/huangsam/formpath/schema"
	"go.uber.org/zap"
)

// FormStore persists answer histories as chains of answer nodes hanging off a user
// vertex. The first node carries the ranking and the tracking id; the last one is
// the terminal node labelled end.
type FormStore struct {
	gw     *gateway.Gateway
	logger *zap.Logger
	now    func() time.Time
}

// NewFormStore creates a form store writing through gw.
func NewFormStore(gw *gateway.Gateway, logger *zap.Logger) *FormStore {
	return &FormStore{gw: gw, logger: contract.LoggerOrNop(logger), now: time.Now}
}

func (fs *FormStore) rootNodeID(user, form string) string {
	return schema.AnswerNodeID(user, fs.gw.RootID(), form)
}

// userLinkID names the edge from a user to the first node of a form. Save writes it
// last, so its presence marks a complete chain.
func userLinkID(user, rootNodeID string) string {
	return user + ">" + rootNodeID
}

// Exists reports whether user already has a form with that name.
func (fs *FormStore) Exists(ctx context.Context, user, form string) (bool, error) {
	if err := contract.ValidateFormIdentity(user, form); err != nil {
		return false, err
	}
	_, ok, err := fs.linkedRoot(ctx, user, form)
	return ok, err
}

// linkedRoot returns the first node of a form once the user link is in place.
// A node left behind by an interrupted save is not a form yet.
func (fs *FormStore) linkedRoot(ctx context.Context, user, form string) (schema.Vertex, bool, error) {
	id := fs.rootNodeID(user, form)
	v, ok, err := fs.gw.Vertex(ctx, id)
	if err != nil || !ok {
		return schema.Vertex{}, false, err
	}
	linked, err := fs.gw.HasEdge(ctx, userLinkID(user, id))
	if err != nil || !linked {
		return schema.Vertex{}, false, err
	}
	return v, true, nil
}

// Save writes history as a new form. It returns false without writing anything when
// the name is taken. ranked is the candidate ranking shown to the user. Nodes and
// edges that already exist are kept, so a save interrupted midway can be retried
// with the same history.
func (fs *FormStore) Save(ctx context.Context, history *schema.AnswerHistory, user, form string, ranked []string, trackingID string) (bool, error) {
	if err := contract.ValidateFormIdentity(user, form); err != nil {
		return false, err
	}
	steps := answeredSteps(history)
	if len(steps) == 0 {
		return false, contract.ValidationErrorf("form %q has no answers to save", form)
	}
	if steps[0].Question.ID != fs.gw.RootID() {
		return false, contract.ValidationErrorf("form %q does not start at question %q", form, fs.gw.RootID())
	}

	exists, err := fs.Exists(ctx, user, form)
	if err != nil {
		return false, err
	}
	if exists {
		fs.logger.Info("form name taken", zap.String("user", user), zap.String("form", form))
		return false, nil
	}

	if err := fs.ensureUser(ctx, user); err != nil {
		return false, err
	}

	// Vertices first, so every edge below links two visible nodes.
	nodeIDs := make([]string, len(steps)+1)
	for i, step := range steps {
		nodeIDs[i] = schema.AnswerNodeID(user, step.Question.ID, form)
		v := schema.Vertex{ID: nodeIDs[i], Label: schema.AnswerLabel, Properties: answerNodeProps(step, form)}
		if i == 0 {
			best := ""
			if len(ranked) > 0 {
				best = ranked[0]
			}
			v.Properties[schema.PropBestOutputs] = best
			v.Properties[schema.PropBestList] = schema.JoinList(ranked)
			v.Properties[schema.PropTrackingID] = trackingID
			v.Properties[schema.PropCreatedAt] = fs.now().UTC().Format(time.RFC3339)
		}
		if err := fs.gw.EnsureVertex(ctx, v); err != nil {
			return false, err
		}
	}

	endID := terminalID(steps[len(steps)-1])
	nodeIDs[len(steps)] = schema.AnswerNodeID(user, endID, form)
	end := schema.Vertex{
		ID:    nodeIDs[len(steps)],
		Label: string(schema.TerminalQuestion),
		Properties: map[string]string{
			schema.PropQuestionID: endID,
			schema.PropFormName:   form,
		},
	}
	if err := fs.gw.EnsureVertex(ctx, end); err != nil {
		return false, err
	}

	for i, step := range steps {
		for seq, p := range step.Chosen {
			props := gateway.EncodeProposition(p)
			if step.Response != "" {
				props[schema.PropResponse] = step.Response
			}
			e := schema.Edge{
				ID:         nodeIDs[i] + ">" + p.ID,
				Label:      schema.AnswerEdge,
				From:       nodeIDs[i],
				To:         nodeIDs[i+1],
				Seq:        seq,
				Properties: props,
			}
			if err := fs.gw.EnsureEdge(ctx, e); err != nil {
				return false, err
			}
		}
	}

	link := schema.Edge{
		ID:         userLinkID(user, nodeIDs[0]),
		Label:      schema.AnswerEdge,
		From:       user,
		To:         nodeIDs[0],
		Properties: map[string]string{schema.PropFormName: form},
	}
	if err := fs.gw.EnsureEdge(ctx, link); err != nil {
		return false, err
	}

	fs.logger.Info("form saved",
		zap.String("user", user),
		zap.String("form", form),
		zap.Int("steps", len(steps)))
	return true, nil
}

// SaveWithRename replaces oldName with history saved as newName. Renaming onto
// another existing form returns false and leaves both untouched. The delete and the
// save are separate writes, so a failure in between loses the old chain.
func (fs *FormStore) SaveWithRename(ctx context.Context, history *schema.AnswerHistory, user, oldName, newName string, ranked []string, trackingID string) (bool, error) {
	if err := contract.ValidateFormIdentity(user, oldName); err != nil {
		return false, err
	}
	if err := contract.ValidateFormIdentity(user, newName); err != nil {
		return false, err
	}
	if oldName != newName {
		taken, err := fs.Exists(ctx, user, newName)
		if err != nil {
			return false, err
		}
		if taken {
			return false, nil
		}
	}
	if _, err := fs.Delete(ctx, user, oldName); err != nil {
		return false, err
	}
	return fs.Save(ctx, history, user, newName, ranked, trackingID)
}

// Delete removes a form by walking its chain. It reports whether anything was removed;
// a missing chain is not an error.
func (fs *FormStore) Delete(ctx context.Context, user, form string) (bool, error) {
	if err := contract.ValidateFormIdentity(user, form); err != nil {
		return false, err
	}
	seen := map[string]bool{}
	removed := 0
	current := fs.rootNodeID(user, form)
	for current != "" && !seen[current] {
		seen[current] = true
		_, ok, err := fs.gw.Vertex(ctx, current)
		if err != nil {
			return false, err
		}
		if !ok {
			break
		}
		edges, err := fs.gw.OutEdges(ctx, current, schema.AnswerEdge)
		if err != nil {
			return false, err
		}
		if err := fs.gw.DropVertex(ctx, current); err != nil {
			return false, err
		}
		removed++
		current = ""
		if len(edges) > 0 {
			current = edges[0].To
		}
	}
	if removed > 0 {
		fs.logger.Info("form deleted", zap.String("user", user), zap.String("form", form), zap.Int("nodes", removed))
	}
	return removed > 0, nil
}

// Retrieve rebuilds the history of a stored form. The result is marked completed.
func (fs *FormStore) Retrieve(ctx context.Context, user, form string) (*schema.AnswerHistory, error) {
	if err := contract.ValidateFormIdentity(user, form); err != nil {
		return nil, err
	}
	history := &schema.AnswerHistory{}
	seen := map[string]bool{}

	v, ok, err := fs.linkedRoot(ctx, user, form)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: form %q of user %q", contract.ErrNotFound, form, user)
	}

	for v.Label != string(schema.TerminalQuestion) {
		if seen[v.ID] {
			return nil, contract.ConfigErrorf("form %q loops back to %q", form, v.ID)
		}
		seen[v.ID] = true

		step, next, err := fs.readStep(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("form %q: %w", form, err)
		}
		history.Append(step)
		v = next
	}

	history.Completed = true
	return history, nil
}

// readStep decodes one answer node and the edges leaving it. It returns the next
// node in the chain.
func (fs *FormStore) readStep(ctx context.Context, v schema.Vertex) (schema.AnswerStep, schema.Vertex, error) {
	qt := schema.QuestionType(v.Prop(schema.PropType))
	if _, ok := schema.ValidQuestionTypes[qt]; !ok || qt == schema.TerminalQuestion {
		return schema.AnswerStep{}, schema.Vertex{}, contract.ConfigErrorf("answer node %q has invalid type %q", v.ID, qt)
	}
	step := schema.AnswerStep{Question: schema.Question{
		ID:   v.Prop(schema.PropQuestionID),
		Text: v.Prop(schema.PropText),
		Help: v.Prop(schema.PropHelp),
		Type: qt,
	}}

	edges, err := fs.gw.OutEdges(ctx, v.ID, schema.AnswerEdge)
	if err != nil {
		return schema.AnswerStep{}, schema.Vertex{}, err
	}
	if len(edges) == 0 {
		return schema.AnswerStep{}, schema.Vertex{}, contract.ConfigErrorf("answer node %q has no outgoing edge", v.ID)
	}

	next, ok, err := fs.gw.Vertex(ctx, edges[0].To)
	if err != nil {
		return schema.AnswerStep{}, schema.Vertex{}, err
	}
	if !ok {
		return schema.AnswerStep{}, schema.Vertex{}, contract.ConfigErrorf("chain is broken after answer node %q: %q is missing", v.ID, edges[0].To)
	}
	for _, e := range edges {
		p, err := gateway.DecodeProposition(e)
		if err != nil {
			return schema.AnswerStep{}, schema.Vertex{}, err
		}
		p.Next = next.Prop(schema.PropQuestionID)
		step.Chosen = append(step.Chosen, p)
		if r := e.Prop(schema.PropResponse); r != "" {
			step.Response = r
		}
	}
	return step, next, nil
}

// List returns the forms of user sorted by name. An unknown user has no forms.
func (fs *FormStore) List(ctx context.Context, user string) ([]schema.StoredForm, error) {
	if err := contract.ValidateUser(user); err != nil {
		return nil, err
	}
	edges, err := fs.gw.OutEdges(ctx, user, schema.AnswerEdge)
	if err != nil {
		return nil, err
	}
	forms := make([]schema.StoredForm, 0, len(edges))
	for _, e := range edges {
		v, ok, err := fs.gw.Vertex(ctx, e.To)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		forms = append(forms, fs.summarize(user, v))
	}
	slices.SortFunc(forms, func(a, b schema.StoredForm) int { return cmp.Compare(a.Name, b.Name) })
	return forms, nil
}

// Summary returns the stored ranking and metadata of one form.
func (fs *FormStore) Summary(ctx context.Context, user, form string) (schema.StoredForm, error) {
	if err := contract.ValidateFormIdentity(user, form); err != nil {
		return schema.StoredForm{}, err
	}
	v, ok, err := fs.linkedRoot(ctx, user, form)
	if err != nil {
		return schema.StoredForm{}, err
	}
	if !ok {
		return schema.StoredForm{}, fmt.Errorf("%w: form %q of user %q", contract.ErrNotFound, form, user)
	}
	return fs.summarize(user, v), nil
}

func (fs *FormStore) summarize(user string, v schema.Vertex) schema.StoredForm {
	f := schema.StoredForm{
		User:       user,
		Name:       v.Prop(schema.PropFormName),
		RootID:     v.ID,
		Ranked:     schema.SplitList(v.Prop(schema.PropBestList)),
		TrackingID: v.Prop(schema.PropTrackingID),
	}
	if t, err := time.Parse(time.RFC3339, v.Prop(schema.PropCreatedAt)); err == nil {
		f.CreatedAt = t
	}
	return f
}

// AddFeedback stores a free-text note for user.
func (fs *FormStore) AddFeedback(ctx context.Context, user, text string) (schema.Feedback, error) {
	if err := contract.ValidateUser(user); err != nil {
		return schema.Feedback{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return schema.Feedback{}, contract.ValidationErrorf("feedback text is required")
	}
	if err := fs.ensureUser(ctx, user); err != nil {
		return schema.Feedback{}, err
	}

	fb := schema.Feedback{
		ID:        user + "-feedback-" + uuid.NewString(),
		User:      user,
		Text:      text,
		CreatedAt: fs.now().UTC().Truncate(time.Second),
	}
	v := schema.Vertex{
		ID:    fb.ID,
		Label: schema.FeedbackLabel,
		Properties: map[string]string{
			schema.PropText:      fb.Text,
			schema.PropCreatedAt: fb.CreatedAt.Format(time.RFC3339),
		},
	}
	if err := fs.gw.EnsureVertex(ctx, v); err != nil {
		return schema.Feedback{}, err
	}
	e := schema.Edge{ID: user + ">" + fb.ID, Label: schema.FeedbackEdge, From: user, To: fb.ID}
	if err := fs.gw.EnsureEdge(ctx, e); err != nil {
		return schema.Feedback{}, err
	}
	return fb, nil
}

// ListFeedback returns the notes of user, oldest first.
func (fs *FormStore) ListFeedback(ctx context.Context, user string) ([]schema.Feedback, error) {
	if err := contract.ValidateUser(user); err != nil {
		return nil, err
	}
	edges, err := fs.gw.OutEdges(ctx, user, schema.FeedbackEdge)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Feedback, 0, len(edges))
	for _, e := range edges {
		v, ok, err := fs.gw.Vertex(ctx, e.To)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		fb := schema.Feedback{ID: v.ID, User: user, Text: v.Prop(schema.PropText)}
		if t, err := time.Parse(time.RFC3339, v.Prop(schema.PropCreatedAt)); err == nil {
			fb.CreatedAt = t
		}
		out = append(out, fb)
	}
	slices.SortStableFunc(out, func(a, b schema.Feedback) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

// Stats counts how often each candidate was ranked first or ranked at all across
// every stored form.
func (fs *FormStore) Stats(ctx context.Context) ([]schema.CandidateStat, error) {
	users, err := fs.gw.VerticesByLabel(ctx, schema.UserLabel)
	if err != nil {
		return nil, err
	}
	counts := map[string]*schema.CandidateStat{}
	for _, u := range users {
		forms, err := fs.List(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		for _, f := range forms {
			for i, name := range f.Ranked {
				st, ok := counts[name]
				if !ok {
					st = &schema.CandidateStat{Name: name}
					counts[name] = st
				}
				st.Appearances++
				if i == 0 {
					st.TopCount++
				}
			}
		}
	}

	stats := make([]schema.CandidateStat, 0, len(counts))
	for _, st := range counts {
		stats = append(stats, *st)
	}
	slices.SortFunc(stats, func(a, b schema.CandidateStat) int {
		return cmp.Or(
			cmp.Compare(b.TopCount, a.TopCount),
			cmp.Compare(b.Appearances, a.Appearances),
			cmp.Compare(a.Name, b.Name),
		)
	})
	return stats, nil
}

func (fs *FormStore) ensureUser(ctx context.Context, user string) error {
	return fs.gw.EnsureVertex(ctx, schema.Vertex{
		ID:         user,
		Label:      schema.UserLabel,
		Properties: map[string]string{schema.PropID: user},
	})
}

func answerNodeProps(step schema.AnswerStep, form string) map[string]string {
	props := map[string]string{
		schema.PropQuestionID: step.Question.ID,
		schema.PropText:       step.Question.Text,
		schema.PropType:       string(step.Question.Type),
		schema.PropFormName:   form,
	}
	if step.Question.Help != "" {
		props[schema.PropHelp] = step.Question.Help
	}
	return props
}

// answeredSteps drops a trailing terminal step some callers append.
func answeredSteps(history *schema.AnswerHistory) []schema.AnswerStep {
	if history == nil {
		return nil
	}
	steps := history.Steps
	if n := len(steps); n > 0 && steps[n-1].Question.IsTerminal() {
		steps = steps[:n-1]
	}
	return steps
}

// terminalID is the question id the last step leads to.
func terminalID(last schema.AnswerStep) string {
	for _, p := range last.Chosen {
		if p.Next != "" {
			return p.Next
		}
	}
	return string(schema.TerminalQuestion)
}
