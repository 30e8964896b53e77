package calculators

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/2beens/fitcalc/internal/calculations"
	"github.com/2beens/fitcalc/internal/gateway"

	log "github.com/sirupsen/logrus"
)

type State int

const (
	StateIdle State = iota
	StateValidating
	StateInvalid
	StateValid
	StateSubmitting
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateInvalid:
		return "invalid"
	case StateValid:
		return "valid"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

var (
	ErrSubmitting      = errors.New("calculation already in progress")
	ErrNotSubmitted    = errors.New("nothing to recalculate")
	ErrNotDiscriminant = errors.New("calculator has no mode to select")
)

// Submitter runs a validated calculator request.
type Submitter interface {
	Submit(ctx context.Context, req Request) (calculations.Result, error)
}

// Form is the state of one calculator form:
//
//	Idle -> Validating -> Invalid -> Idle
//	                   -> Valid -> Submitting -> Submitted
//	                                          -> Idle (with error)
//	Submitted -> Submitting (recalculate)
//
// A canceled submission goes back to Idle without an error.
type Form struct {
	mutex        sync.Mutex
	calcType     calculations.Type
	submitter    Submitter
	values       Values
	state        State
	fieldErrors  ValidationErrors
	submitErr    error
	result       calculations.Result
	submitted    Request
	onTransition func(from, to State)
}

func NewForm(calcType calculations.Type, submitter Submitter) *Form {
	return &Form{
		calcType:  calcType,
		submitter: submitter,
		values:    DefaultValues(calcType),
		state:     StateIdle,
	}
}

// OnTransition registers f to be called on every state change. f runs with
// the form locked and must not call back into the form.
func (f *Form) OnTransition(fn func(from, to State)) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.onTransition = fn
}

func (f *Form) Type() calculations.Type {
	return f.calcType
}

func (f *Form) State() State {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.state
}

func (f *Form) Values() Values {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.values.Clone()
}

// FieldErrors are the errors of the last validation still relevant.
func (f *Form) FieldErrors() ValidationErrors {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return slices.Clone(f.fieldErrors)
}

// Err is the error of the last failed submission.
func (f *Form) Err() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.submitErr
}

func (f *Form) Result() calculations.Result {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.result
}

// RequiredFields are the fields the current discriminant asks for.
func (f *Form) RequiredFields() []Field {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return RequiredFields(f.calcType, f.values)
}

// SetValue changes one field. Editing a submitted form makes it a new,
// idle one.
func (f *Form) SetValue(field Field, value string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.state == StateSubmitting {
		return ErrSubmitting
	}
	f.values[field] = value
	f.dropError(field)
	if field == Discriminant(f.calcType) || field == FieldGender {
		f.dropIrrelevantErrors()
	}
	if f.state == StateSubmitted {
		f.transition(StateIdle)
	}
	return nil
}

// SetDiscriminant selects the equation, method or mode. Errors of fields
// the new selection does not require are dropped.
func (f *Form) SetDiscriminant(value string) error {
	field := Discriminant(f.calcType)
	if field == "" {
		return ErrNotDiscriminant
	}
	return f.SetValue(field, value)
}

// Submit validates the values and, when valid, submits them. Invalid
// values block the submission and are returned as ValidationErrors.
func (f *Form) Submit(ctx context.Context) (calculations.Result, error) {
	f.mutex.Lock()
	if f.state == StateSubmitting {
		f.mutex.Unlock()
		return nil, ErrSubmitting
	}

	f.transition(StateValidating)
	req, err := Validate(f.calcType, f.values)
	if err != nil {
		var verrs ValidationErrors
		if errors.As(err, &verrs) {
			f.fieldErrors = verrs
		}
		f.transition(StateInvalid)
		f.transition(StateIdle)
		f.mutex.Unlock()
		return nil, err
	}
	f.fieldErrors = nil
	f.transition(StateValid)

	return f.submit(ctx, req)
}

// Recalculate submits the last submitted request again.
func (f *Form) Recalculate(ctx context.Context) (calculations.Result, error) {
	f.mutex.Lock()
	if f.state != StateSubmitted || f.submitted == nil {
		f.mutex.Unlock()
		return nil, ErrNotSubmitted
	}
	return f.submit(ctx, f.submitted)
}

// submit is entered with the mutex held and releases it while the request
// runs.
func (f *Form) submit(ctx context.Context, req Request) (calculations.Result, error) {
	f.submitErr = nil
	f.transition(StateSubmitting)
	f.mutex.Unlock()

	res, err := f.submitter.Submit(ctx, req)

	f.mutex.Lock()
	defer f.mutex.Unlock()
	switch {
	case err == nil:
		f.result = res
		f.submitted = req
		f.transition(StateSubmitted)
	case gateway.IsCanceled(err):
		log.Debugf("calculators: %s submission canceled", f.calcType)
		f.transition(StateIdle)
	default:
		f.submitErr = err
		f.transition(StateIdle)
	}
	return res, err
}

func (f *Form) transition(to State) {
	from := f.state
	f.state = to
	if f.onTransition != nil && from != to {
		f.onTransition(from, to)
	}
}

func (f *Form) dropError(field Field) {
	f.fieldErrors = slices.DeleteFunc(f.fieldErrors, func(e FieldError) bool {
		return e.Field == field
	})
}

func (f *Form) dropIrrelevantErrors() {
	required := RequiredFields(f.calcType, f.values)
	f.fieldErrors = slices.DeleteFunc(f.fieldErrors, func(e FieldError) bool {
		return !slices.Contains(required, e.Field)
	})
}
