package assignment

import (
	"context"
	"net/http"
	"time"
)

// Confirmer asks the operator to type phrase and returns what they typed.
type Confirmer interface {
	Confirm(ctx context.Context, phrase string) (string, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, phrase string) (string, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, phrase string) (string, error) {
	return f(ctx, phrase)
}

// DeletionPhrase is the exact text required to delete an assignment's repositories.
func DeletionPhrase(assignment string) string { return "delete " + assignment }

// DeleteRepos deletes every repository of assignment after the operator has
// typed DeletionPhrase(assignment) exactly. Nothing is fetched before the
// phrase matches. The first failed delete stops the sweep.
func (s *Service) DeleteRepos(ctx context.Context, assignment string, confirm Confirmer) (deleted []string, err error) {
	r := s.begin(ctx, OpDelete, assignment)
	defer func(start time.Time) { r.finish(ctx, start, err) }(time.Now())

	if err := validateAssignment(assignment); err != nil {
		return nil, err
	}
	if confirm == nil {
		return nil, ErrDeletionNotConfirmed.WithContext("reason", "no confirmation source")
	}

	phrase := DeletionPhrase(assignment)
	answer, err := confirm.Confirm(ctx, phrase)
	if err != nil {
		return nil, ErrDeletionNotConfirmed.WithCause(err)
	}
	if answer != phrase {
		return nil, ErrDeletionNotConfirmed.WithContext("expected", phrase)
	}

	observed, err := s.observedRepos(ctx, assignment)
	if err != nil {
		return nil, err
	}

	repos := observed.Values()
	deleted = make([]string, 0, len(repos))
	for i, repo := range repos {
		r.progress(OpDelete, repo.FullName, i+1, len(repos))
		target := r.repoTarget(repo, "", r.endpoints.Repo(repo.FullName))
		m := Mutation{Kind: KindDeleteRepository, Repository: repo.FullName}
		err := r.gate.Submit(ctx, m, func(ctx context.Context) error {
			resp, err := r.remote.Delete(ctx, target)
			if err != nil {
				return rewrap(ErrDeleteFailed, err).WithContext("repository", repo.FullName)
			}
			if resp.StatusCode != http.StatusNoContent {
				return ErrDeleteFailed.
					WithContext("repository", repo.FullName).
					WithContext("url", resp.URL).
					WithContext("status", resp.StatusCode).
					WithContext("response", resp.Snippet())
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		deleted = append(deleted, repo.FullName)
	}
	return deleted, nil
}
