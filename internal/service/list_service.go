// Package service enforces the list lifecycle: ownership, visibility,
// sharing, copying and completion on top of the list store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"easylist/internal/metrics"
	"easylist/internal/model"
	"easylist/internal/notify"
	"easylist/internal/repository"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// UserDirectory resolves user identities for notifications.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Sanitizer cleans list bodies before they are stored.
type Sanitizer interface {
	HTML(raw string) string
}

type Options struct {
	// ShareBaseURL prefixes the list id in share links.
	ShareBaseURL string
	// DeleteRequiresOwner restricts Delete to the list author.
	DeleteRequiresOwner bool
	// TrustClientTimestamps stores the caller's updatedAt verbatim on Update.
	TrustClientTimestamps bool
}

type CreateListInput struct {
	Name            string `json:"name" validate:"required,max=24"`
	HTML            string `json:"html" validate:"required,max=20000"`
	BackgroundColor string `json:"backgroundColor" validate:"required,max=64"`
	NotificationsOn bool   `json:"notificationsOn"`
	IsPrivate       bool   `json:"isPrivate"`
}

type UpdateListInput struct {
	Name            *string    `json:"name" validate:"omitnil,min=1,max=24"`
	HTML            *string    `json:"html" validate:"omitnil,min=1,max=20000"`
	BackgroundColor *string    `json:"backgroundColor" validate:"omitnil,min=1,max=64"`
	NotificationsOn *bool      `json:"notificationsOn"`
	IsPrivate       *bool      `json:"isPrivate"`
	UpdatedAt       *time.Time `json:"updatedAt"`
}

type ShareResult struct {
	IsPrivate bool
	Message   string
	Link      string
}

const (
	msgNowPrivate   = "Your list is now private."
	msgNowShareable = "Your list is now shareable."
)

type ListService struct {
	lists     repository.ListRepositoryInterface
	users     UserDirectory
	sanitizer Sanitizer
	notifier  notify.Notifier
	validate  *validator.Validate
	logger    *slog.Logger
	opts      Options
}

func NewListService(
	lists repository.ListRepositoryInterface,
	users UserDirectory,
	sanitizer Sanitizer,
	notifier notify.Notifier,
	logger *slog.Logger,
	opts Options,
) *ListService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	return &ListService{
		lists:     lists,
		users:     users,
		sanitizer: sanitizer,
		notifier:  notifier,
		validate:  validate,
		logger:    logger,
		opts:      opts,
	}
}

// ShareLink is the public URL of a list.
func (s *ListService) ShareLink(id uuid.UUID) string {
	return strings.TrimRight(s.opts.ShareBaseURL, "/") + "/" + id.String()
}

func (s *ListService) Create(ctx context.Context, callerID uuid.UUID, in CreateListInput) (*model.List, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	list := &model.List{
		Name:            in.Name,
		AuthorID:        callerID,
		HTML:            s.sanitizer.HTML(in.HTML),
		BackgroundColor: in.BackgroundColor,
		IsPrivate:       in.IsPrivate,
		NotificationsOn: in.NotificationsOn,
	}
	if err := s.lists.Create(ctx, list); err != nil {
		return nil, err
	}

	metrics.RecordTransition(metrics.OpCreate)
	return list, nil
}

// ListByAuthor returns every list owned by the caller.
func (s *ListService) ListByAuthor(ctx context.Context, callerID uuid.UUID) ([]model.List, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	lists, err := s.lists.FindByAuthor(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if len(lists) == 0 {
		return nil, model.ErrNoListsForAuthor
	}
	return lists, nil
}

// Read returns a list to its owner, or to anyone once it is public.
// callerID is uuid.Nil for anonymous callers.
func (s *ListService) Read(ctx context.Context, callerID, id uuid.UUID) (*model.List, error) {
	list, err := s.lists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if list.IsPrivate && list.AuthorID != callerID {
		return nil, model.ErrListIsPrivate
	}
	return list, nil
}

// GetForEdit returns a list only to its owner, whatever its visibility.
func (s *ListService) GetForEdit(ctx context.Context, callerID, id uuid.UUID) (*model.List, error) {
	return s.loadOwned(ctx, callerID, id)
}

func (s *ListService) Update(ctx context.Context, callerID, id uuid.UUID, in UpdateListInput) (*model.List, error) {
	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	if _, err := s.loadOwned(ctx, callerID, id); err != nil {
		return nil, err
	}

	patch := model.ListPatch{
		Name:            in.Name,
		BackgroundColor: in.BackgroundColor,
		NotificationsOn: in.NotificationsOn,
		IsPrivate:       in.IsPrivate,
	}
	if in.HTML != nil {
		clean := s.sanitizer.HTML(*in.HTML)
		patch.HTML = &clean
	}
	if s.opts.TrustClientTimestamps && in.UpdatedAt != nil {
		patch.UpdatedAt = in.UpdatedAt
	}

	updated, err := s.lists.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition(metrics.OpUpdate)
	return updated, nil
}

// ToggleShare flips the visibility of an owned list.
func (s *ListService) ToggleShare(ctx context.Context, callerID, id uuid.UUID) (*ShareResult, error) {
	list, err := s.loadOwned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	isPrivate := !list.IsPrivate
	if _, err := s.lists.Update(ctx, id, model.ListPatch{IsPrivate: &isPrivate}); err != nil {
		return nil, err
	}

	if isPrivate {
		metrics.RecordTransition(metrics.OpUnshare)
		return &ShareResult{IsPrivate: true, Message: msgNowPrivate}, nil
	}
	metrics.RecordTransition(metrics.OpShare)
	return &ShareResult{IsPrivate: false, Message: msgNowShareable, Link: s.ShareLink(id)}, nil
}

// Copy gives the caller their own private copy of a public list. Each caller
// holds at most one copy of a given source.
func (s *ListService) Copy(ctx context.Context, callerID, sourceID uuid.UUID) (*model.List, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}

	source, err := s.lists.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source.IsPrivate {
		return nil, model.ErrListIsPrivate
	}
	if source.AuthorID == callerID {
		return nil, model.ErrCopyOwnList
	}

	existing, err := s.lists.FindByAuthorAndSource(ctx, callerID, sourceID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, model.ErrAlreadyCopied
	}

	copied := &model.List{
		Name:            source.Name,
		AuthorID:        callerID,
		HTML:            source.HTML,
		BackgroundColor: source.BackgroundColor,
		IsPrivate:       true,
		CopiedFrom:      &source.ID,
	}
	if err := s.lists.Create(ctx, copied); err != nil {
		// a concurrent copy won the unique index
		if errors.Is(err, repository.ErrDuplicateCopy) {
			return nil, model.ErrAlreadyCopied
		}
		return nil, err
	}

	metrics.RecordTransition(metrics.OpCopy)
	return copied, nil
}

// Complete marks the caller's copy as finished and, when the original author
// asked for it, notifies them. The notice is best effort: once the list is
// marked finished nothing that happens afterwards turns the call into a failure.
func (s *ListService) Complete(ctx context.Context, callerID, id uuid.UUID) (*model.List, error) {
	list, err := s.loadOwned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if list.IsFinished {
		return nil, model.ErrAlreadyFinished
	}
	if !list.IsCopy() {
		return nil, model.ErrCompletionTarget
	}

	original, err := s.lists.GetByID(ctx, *list.CopiedFrom)
	if errors.Is(err, repository.ErrListNotFound) {
		return nil, model.ErrCompletionTarget
	}
	if err != nil {
		return nil, err
	}

	changed, err := s.lists.MarkFinished(ctx, list.ID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, model.ErrAlreadyFinished
	}
	list.IsFinished = true
	metrics.RecordTransition(metrics.OpComplete)

	if !original.NotificationsOn {
		metrics.RecordNotification(metrics.NotifySkipped)
		return list, nil
	}
	s.notifyCompletion(ctx, list, original, callerID)
	return list, nil
}

func (s *ListService) notifyCompletion(ctx context.Context, list, original *model.List, completerID uuid.UUID) {
	logger := s.logger.With(slog.String("list_id", list.ID.String()))

	author, err := s.users.GetByID(ctx, original.AuthorID)
	if err != nil {
		metrics.RecordNotification(metrics.NotifyFailed)
		logger.WarnContext(ctx, "cannot resolve list author for completion notice",
			slog.String("error", errors.Mark(err, model.ErrNotificationDelivery).Error()))
		return
	}
	completer, err := s.users.GetByID(ctx, completerID)
	if err != nil {
		metrics.RecordNotification(metrics.NotifyFailed)
		logger.WarnContext(ctx, "cannot resolve completer for completion notice",
			slog.String("error", errors.Mark(err, model.ErrNotificationDelivery).Error()))
		return
	}

	s.notifier.NotifyCompletion(ctx, notify.Completion{
		ListName:          list.Name,
		AuthorEmail:       author.Email,
		AuthorUsername:    author.Username,
		CompleterUsername: completer.Username,
	})
}

// Delete removes a list. Unless DeleteRequiresOwner is off, only the author may delete it.
// Copies of a deleted list keep their dangling CopiedFrom.
func (s *ListService) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	if s.opts.DeleteRequiresOwner {
		if _, err := s.loadOwned(ctx, callerID, id); err != nil {
			return err
		}
	}

	deleted, err := s.lists.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return repository.ErrListNotFound
	}

	metrics.RecordTransition(metrics.OpDelete)
	return nil
}

func (s *ListService) loadOwned(ctx context.Context, callerID, id uuid.UUID) (*model.List, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	list, err := s.lists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if list.AuthorID != callerID {
		return nil, model.ErrNotListOwner
	}
	return list, nil
}

func (s *ListService) validateInput(in interface{}) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Mark(err, model.ErrValidation)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return errors.Wrap(model.ErrValidation, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must not be empty", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}

func requireCaller(callerID uuid.UUID) error {
	if callerID == uuid.Nil {
		return errors.Wrap(model.ErrAccessDenied, "authentication required")
	}
	return nil
}
