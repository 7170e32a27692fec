// Package core has the traversal, scoring and persistence logic behind every command.
package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/formpath/internal/contract"
	"github.com/huangsam/formpath/internal/gateway"
	"github.com/huangsam/formpath/internal/outwriter"
	"github.com/huangsam/formpath/schema"
	"go.uber.org/zap"
)

// ExecutorFunc defines the function signature for executing a command.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// stdout receives confirmations that are not part of the rendered results.
var stdout io.Writer = os.Stdout

// openGateway wraps the configured graph store.
func openGateway(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*gateway.Gateway, error) {
	gs := mgr.GetGraphStore()
	if gs == nil {
		return nil, contract.ConfigErrorf("graph store is not initialized")
	}
	return gateway.New(gs, cfg.RootQuestion, loggerFrom(ctx)), nil
}

// openForms returns the form store over the configured graph.
func openForms(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*gateway.Gateway, *FormStore, error) {
	gw, err := openGateway(ctx, cfg, mgr)
	if err != nil {
		return nil, nil, err
	}
	return gw, NewFormStore(gw, loggerFrom(ctx)), nil
}

// ExecuteFill walks a new form from the root question to the end, ranks the
// candidates and stores the answers under the form name.
func ExecuteFill(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	if err := contract.ValidateFormIdentity(cfg.User, cfg.FormName); err != nil {
		return err
	}
	gw, forms, err := openForms(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	exists, err := forms.Exists(ctx, cfg.User, cfg.FormName)
	if err != nil {
		return err
	}
	if exists {
		return formTaken(cfg.User, cfg.FormName)
	}

	p, err := prompterFrom(ctx, cfg)
	if err != nil {
		return err
	}
	s := NewSession(cfg.User, gw, RestrictionPolicyFrom(cfg), loggerFrom(ctx))
	if err := fillLoop(ctx, s, p); err != nil {
		return err
	}

	ranked, err := s.Rank(ctx, cfg.ResultLimit)
	if err != nil {
		return err
	}
	trackingID, err := trackForm(ctx, cfg, mgr.GetTracker(), cfg.FormName, s.History, ranked)
	if err != nil {
		return err
	}
	saved, err := forms.Save(ctx, s.History, cfg.User, cfg.FormName, candidateNames(ranked), trackingID)
	if err != nil {
		return err
	}
	if !saved {
		return formTaken(cfg.User, cfg.FormName)
	}
	return outwriter.NewOutWriter().WriteRanking(cfg.FormName, ranked, cfg)
}

// ExecuteEdit reopens a stored form at a chosen answer, walks the rest again and
// stores the result, optionally under a new name.
func ExecuteEdit(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	if err := contract.ValidateFormIdentity(cfg.User, cfg.FormName); err != nil {
		return err
	}
	target := cfg.FormName
	if cfg.NewFormName != "" {
		target = cfg.NewFormName
		if err := contract.ValidateFormIdentity(cfg.User, target); err != nil {
			return err
		}
	}

	gw, forms, err := openForms(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	history, err := forms.Retrieve(ctx, cfg.User, cfg.FormName)
	if err != nil {
		return err
	}
	summary, err := forms.Summary(ctx, cfg.User, cfg.FormName)
	if err != nil {
		return err
	}

	p, err := prompterFrom(ctx, cfg)
	if err != nil {
		return err
	}
	idx, err := p.PickStep(ctx, history)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= history.Len() {
		return contract.ValidationErrorf("step %d is out of range", idx+1)
	}
	history.Truncate(idx)

	s := ResumeSession(cfg.User, history, gw, RestrictionPolicyFrom(cfg), loggerFrom(ctx))
	if err := fillLoop(ctx, s, p); err != nil {
		return err
	}
	ranked, err := s.Rank(ctx, cfg.ResultLimit)
	if err != nil {
		return err
	}

	trackingID := summary.TrackingID
	if trackingID == "" {
		if trackingID, err = trackForm(ctx, cfg, mgr.GetTracker(), target, s.History, ranked); err != nil {
			return err
		}
	}
	saved, err := forms.SaveWithRename(ctx, s.History, cfg.User, cfg.FormName, target, candidateNames(ranked), trackingID)
	if err != nil {
		return err
	}
	if !saved {
		return formTaken(cfg.User, target)
	}
	return outwriter.NewOutWriter().WriteRanking(target, ranked, cfg)
}

// ExecuteFormsList prints the forms stored for a user.
func ExecuteFormsList(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	list, err := ListForms(ctx, cfg, mgr, cfg.User)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteForms(list, cfg)
}

// ExecuteFormShow prints the answers of a stored form with a fresh ranking.
func ExecuteFormShow(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	detail, err := LoadFormDetail(ctx, cfg, mgr, cfg.User, cfg.FormName)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteFormDetail(detail, cfg)
}

// ExecuteFormRank prints only the ranking of a stored form.
func ExecuteFormRank(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	detail, err := LoadFormDetail(ctx, cfg, mgr, cfg.User, cfg.FormName)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteRanking(cfg.FormName, detail.Ranking, cfg)
}

// LoadFormDetail retrieves a stored form and ranks its answers again against the
// current questionnaire.
func LoadFormDetail(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, user, form string) (schema.FormDetail, error) {
	gw, forms, err := openForms(ctx, cfg, mgr)
	if err != nil {
		return schema.FormDetail{}, err
	}
	history, err := forms.Retrieve(ctx, user, form)
	if err != nil {
		return schema.FormDetail{}, err
	}
	summary, err := forms.Summary(ctx, user, form)
	if err != nil {
		return schema.FormDetail{}, err
	}
	ranked, err := ResumeSession(user, history, gw, RestrictionPolicyFrom(cfg), loggerFrom(ctx)).Rank(ctx, cfg.ResultLimit)
	if err != nil {
		return schema.FormDetail{}, err
	}
	return schema.FormDetail{Form: summary, History: history, Ranking: ranked}, nil
}

// ExecuteFormDelete removes a stored form.
func ExecuteFormDelete(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	_, forms, err := openForms(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if err := contract.ValidateFormIdentity(cfg.User, cfg.FormName); err != nil {
		return err
	}
	deleted, err := forms.Delete(ctx, cfg.User, cfg.FormName)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: form %q of user %q", contract.ErrNotFound, cfg.FormName, cfg.User)
	}
	_, err = fmt.Fprintf(stdout, "Deleted form %q of user %q\n", cfg.FormName, cfg.User)
	return err
}

// ExecuteFormStats prints how often each candidate was recommended.
func ExecuteFormStats(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	_, forms, err := openForms(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	stats, err := forms.Stats(ctx)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteStats(stats, cfg)
}

// ExecuteFeedbackAdd stores a note from a user.
func ExecuteFeedbackAdd(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	_, forms, err := openForms(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	fb, err := forms.AddFeedback(ctx, cfg.User, cfg.FeedbackText)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "Saved feedback %s\n", fb.ID)
	return err
}

// ExecuteFeedbackList prints the notes of a user.
func ExecuteFeedbackList(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	_, forms, err := openForms(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	notes, err := forms.ListFeedback(ctx, cfg.User)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteFeedback(notes, cfg)
}

// RankScripted walks a new traversal with p and ranks the answers without
// storing anything.
func RankScripted(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, p contract.Prompter) (*schema.AnswerHistory, []schema.RankedCandidate, error) {
	gw, err := openGateway(ctx, cfg, mgr)
	if err != nil {
		return nil, nil, err
	}
	s := NewSession("", gw, RestrictionPolicyFrom(cfg), loggerFrom(ctx))
	if err := fillLoop(ctx, s, p); err != nil {
		return nil, nil, err
	}
	ranked, err := s.Rank(ctx, cfg.ResultLimit)
	if err != nil {
		return nil, nil, err
	}
	return s.History, ranked, nil
}

// QuestionByID loads one question, the root when id is empty.
func QuestionByID(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, id string) (schema.Question, error) {
	gw, err := openGateway(ctx, cfg, mgr)
	if err != nil {
		return schema.Question{}, err
	}
	if id == "" {
		return gw.RootQuestion(ctx)
	}
	return gw.Question(ctx, id)
}

// ListForms returns the forms stored for a user.
func ListForms(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, user string) ([]schema.StoredForm, error) {
	_, forms, err := openForms(ctx, cfg, mgr)
	if err != nil {
		return nil, err
	}
	return forms.List(ctx, user)
}

// fillLoop asks questions until the terminal one. A back answer undoes the
// previous step.
func fillLoop(ctx context.Context, s *Session, p contract.Prompter) error {
	logger := loggerFrom(ctx)
	for {
		q, err := s.Current(ctx)
		if err != nil {
			return err
		}
		if q.IsTerminal() {
			return nil
		}

		answer, err := p.Ask(ctx, q, s.History.Len() > 0)
		if err != nil {
			return err
		}
		if answer.Back {
			logger.Debug("going back", zap.String("question", q.ID))
			s.Back(1)
			continue
		}
		if err := s.Answer(q, answer.ChosenIDs, answer.Response); err != nil {
			return err
		}
	}
}

// trackForm records the answers and the ranking as a run when tracking is on.
// It returns the id of the experiment holding the run.
func trackForm(ctx context.Context, cfg *contract.Config, tracker contract.Tracker, form string, history *schema.AnswerHistory, ranked []schema.RankedCandidate) (string, error) {
	if !cfg.Track {
		return "", nil
	}
	recorder, ok := tracker.(contract.RunRecorder)
	if !ok {
		loggerFrom(ctx).Warn("tracking backend cannot record forms", zap.String("backend", string(cfg.TrackingBackend)))
		return "", nil
	}

	expID, err := recorder.CreateExperiment(ctx, cfg.ExperimentPrefix+cfg.User+"-"+form)
	if err != nil {
		return "", contract.Unavailable("tracking", err)
	}
	metrics := make(map[string]float64, len(ranked))
	for _, r := range ranked {
		metrics[r.Name] = r.Coefficient
	}
	params := make(map[string]string, history.Len())
	for _, step := range history.Steps {
		value := schema.JoinList(step.ChosenTexts())
		if step.Response != "" {
			value = step.Response
		}
		params[step.Question.ID] = value
	}
	if _, err := recorder.LogRun(ctx, expID, form, metrics, params); err != nil {
		return "", contract.Unavailable("tracking", err)
	}
	return expID, nil
}

func candidateNames(ranked []schema.RankedCandidate) []string {
	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.Name
	}
	return names
}

func formTaken(user, form string) error {
	return fmt.Errorf("%w: form %q already exists for user %q", contract.ErrConflict, form, user)
}
