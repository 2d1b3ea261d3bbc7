// Package form drives the four-step profile form: per-step validation, the
// debounced username availability check and the final submission.
package form

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/nbutton23/zxcvbn-go"

	"github.com/AlexZx-05/Multiple-step-form/internal/entity"
)

type Step int

const (
	StepAccount Step = iota + 1
	StepProfession
	StepLocation
	StepSummary
)

func (s Step) String() string {
	switch s {
	case StepAccount:
		return "account"
	case StepProfession:
		return "profession"
	case StepLocation:
		return "location"
	case StepSummary:
		return "summary"
	}
	return "unknown"
}

// Availability is the tri-state result of the last username check.
type Availability int

const (
	AvailabilityUnknown Availability = iota
	AvailabilityAvailable
	AvailabilityTaken
)

var (
	ErrStepIncomplete  = errors.New("form: current step is incomplete")
	ErrFirstStep       = errors.New("form: already at the first step")
	ErrNotAtSummary    = errors.New("form: submit is only available on the last step")
	ErrSubmitting      = errors.New("form: a submission is in flight")
	ErrUnknownField    = errors.New("form: unknown field")
	ErrCompanyRequired = errors.New("form: company name is required for the selected profession")
)

// CompanyRequiredMessage is shown inline when ErrCompanyRequired stops a submit.
const CompanyRequiredMessage = "Company name is required for the selected profession."

var strengthLabels = []string{"Very Weak", "Weak", "Fair", "Good", "Strong"}

// stepRequirements lists the fields every step needs filled in. Profession
// driven requirements come from entity.RequiredByProfession.
var stepRequirements = map[Step][]string{
	StepAccount:    {entity.FieldUsername, entity.FieldCurrentPassword, entity.FieldNewPassword},
	StepProfession: {entity.FieldProfession, entity.FieldAddressLine1},
	StepLocation:   {entity.FieldCountry, entity.FieldState, entity.FieldCity, entity.FieldSubscriptionPlan},
}

type UsernameChecker interface {
	CheckUsername(ctx context.Context, username string) (bool, error)
}

type Submitter interface {
	SubmitForm(ctx context.Context, sub entity.ProfileSubmission) (*entity.User, error)
}

type Option func(*Controller)

// WithDebounce delays the availability check until the username has been
// left alone for d.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithCheckTimeout bounds each availability request.
func WithCheckTimeout(d time.Duration) Option {
	return func(c *Controller) { c.checkTimeout = d }
}

// WithOnChange registers a callback run after asynchronous state changes.
func WithOnChange(fn func()) Option {
	return func(c *Controller) { c.onChange = fn }
}

// Controller is safe for concurrent use.
type Controller struct {
	checker   UsernameChecker
	submitter Submitter

	debounce     time.Duration
	checkTimeout time.Duration
	onChange     func()

	mu           sync.Mutex
	step         Step
	data         entity.ProfileSubmission
	availability Availability
	checking     bool
	checkSeq     uint64
	timer        *time.Timer
	pending      sync.WaitGroup
	submitting   bool
	submitErr    error
	submitted    *entity.User
}

func New(checker UsernameChecker, submitter Submitter, opts ...Option) *Controller {
	c := &Controller{
		checker:      checker,
		submitter:    submitter,
		checkTimeout: 10 * time.Second,
		step:         StepAccount,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StepValid is the pure validation gate of a step.
func StepValid(step Step, data entity.ProfileSubmission, availability Availability) bool {
	for _, field := range stepRequirements[step] {
		if strings.TrimSpace(data.Value(field)) == "" {
			return false
		}
	}
	switch step {
	case StepAccount:
		return availability == AvailabilityAvailable
	case StepProfession:
		return len(data.MissingForProfession()) == 0
	}
	return true
}

func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

func (c *Controller) Availability() Availability {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.availability
}

// Checking reports whether an availability request is outstanding.
func (c *Controller) Checking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checking
}

func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// SubmitError is the inline message of the last failed submission.
func (c *Controller) SubmitError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitErr
}

// SubmitMessage is the text to show for the last failed submission, or ""
// when there is none.
func (c *Controller) SubmitMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.submitErr == nil:
		return ""
	case errors.Is(c.submitErr, ErrCompanyRequired):
		return CompanyRequiredMessage
	}
	return c.submitErr.Error()
}

// Submitted returns the stored profile after a successful submission.
func (c *Controller) Submitted() *entity.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitted
}

// Summary returns a copy of the values collected so far.
func (c *Controller) Summary() entity.ProfileSubmission {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

// Set updates a text field by name.
func (c *Controller) Set(field, value string) error {
	if field == entity.FieldUsername {
		c.SetUsername(value)
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch field {
	case entity.FieldCurrentPassword:
		c.data.CurrentPassword = value
	case entity.FieldNewPassword:
		c.data.NewPassword = value
	case entity.FieldProfession:
		c.data.Profession = value
	case entity.FieldCompanyName:
		c.data.CompanyName = value
	case entity.FieldAddressLine1:
		c.data.AddressLine1 = value
	case entity.FieldCountry:
		c.data.Country = value
	case entity.FieldState:
		c.data.State = value
	case entity.FieldCity:
		c.data.City = value
	case entity.FieldSubscriptionPlan:
		c.data.SubscriptionPlan = value
	default:
		return ErrUnknownField
	}
	return nil
}

func (c *Controller) SetNewsletter(v bool) {
	c.mu.Lock()
	c.data.Newsletter = v
	c.mu.Unlock()
}

// SetPhoto records the local path of the photo to upload with the form.
func (c *Controller) SetPhoto(path string) {
	c.mu.Lock()
	c.data.ProfilePhoto = path
	c.mu.Unlock()
}

// SetUsername updates the username, resets availability and schedules a
// check. Results of checks for earlier values are discarded.
func (c *Controller) SetUsername(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data.Username = value
	c.availability = AvailabilityUnknown
	c.checkSeq++
	if c.timer != nil && c.timer.Stop() {
		c.pending.Done()
	}
	c.timer = nil

	username := strings.TrimSpace(value)
	if username == "" || c.checker == nil {
		c.checking = false
		return
	}

	seq := c.checkSeq
	c.checking = true
	c.pending.Add(1)
	c.timer = time.AfterFunc(c.debounce, func() {
		defer c.pending.Done()
		c.runCheck(context.Background(), seq, username)
	})
}

// RefreshAvailability checks the current username synchronously.
func (c *Controller) RefreshAvailability(ctx context.Context) Availability {
	c.mu.Lock()
	seq, username := c.checkSeq, strings.TrimSpace(c.data.Username)
	c.mu.Unlock()

	if username != "" && c.checker != nil {
		c.runCheck(ctx, seq, username)
	}
	return c.Availability()
}

// Wait blocks until scheduled availability checks have finished.
func (c *Controller) Wait() {
	c.pending.Wait()
}

func (c *Controller) runCheck(ctx context.Context, seq uint64, username string) {
	c.mu.Lock()
	if seq != c.checkSeq {
		c.mu.Unlock()
		return
	}
	c.checking = true
	c.mu.Unlock()

	if c.checkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.checkTimeout)
		defer cancel()
	}
	available, err := c.checker.CheckUsername(ctx, username)

	c.mu.Lock()
	if seq != c.checkSeq {
		c.mu.Unlock()
		return
	}
	c.checking = false
	switch {
	case err != nil:
		c.availability = AvailabilityUnknown
	case available:
		c.availability = AvailabilityAvailable
	default:
		c.availability = AvailabilityTaken
	}
	c.mu.Unlock()
	c.changed()
}

// StepValid evaluates the gate of the current step.
func (c *Controller) StepValid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return StepValid(c.step, c.data, c.availability)
}

func (c *Controller) CanNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canNextLocked()
}

func (c *Controller) canNextLocked() bool {
	return !c.submitting && c.step < StepSummary && StepValid(c.step, c.data, c.availability)
}

func (c *Controller) CanBack() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.submitting && c.step > StepAccount
}

func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrSubmitting
	}
	if !c.canNextLocked() {
		return ErrStepIncomplete
	}
	c.step++
	return nil
}

func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitting {
		return ErrSubmitting
	}
	if c.step <= StepAccount {
		return ErrFirstStep
	}
	c.step--
	return nil
}

// CanSubmit reports whether the submit control is enabled.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step == StepSummary && !c.submitting
}

// Submit sends the collected values. Only one submission runs at a time; a
// failure is kept as SubmitError and submit is enabled again.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.step != StepSummary {
		c.mu.Unlock()
		return ErrNotAtSummary
	}
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmitting
	}
	c.submitErr = nil
	c.submitted = nil
	if len(c.data.MissingForProfession()) > 0 {
		c.submitErr = ErrCompanyRequired
		c.mu.Unlock()
		return ErrCompanyRequired
	}
	c.submitting = true
	data := c.data
	c.mu.Unlock()

	user, err := c.submitter.SubmitForm(ctx, data)

	c.mu.Lock()
	c.submitting = false
	c.submitErr = err
	if err == nil {
		c.submitted = user
	}
	c.mu.Unlock()
	c.changed()
	return err
}

// PasswordStrength scores the new password from 0 to 4.
func (c *Controller) PasswordStrength() (int, string) {
	c.mu.Lock()
	password, username := c.data.NewPassword, c.data.Username
	c.mu.Unlock()

	if password == "" {
		return 0, ""
	}
	score := zxcvbn.PasswordStrength(password, []string{username}).Score
	if score < 0 {
		score = 0
	}
	if score >= len(strengthLabels) {
		score = len(strengthLabels) - 1
	}
	return score, strengthLabels[score]
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
