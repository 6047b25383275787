package bitmap

import (
	"encoding/json"
	"fmt"

	"go.uber.org/multierr"
)

// Method names understood by the plugin
const (
	MethodRender      = "r"
	MethodDisposeList = "dl"
)

// Error codes reported through Result.Error
const (
	CodeBadArgs     = "bad_args"
	CodeAllocate    = "allocate_failed"
	CodeRender      = "render_failed"
	CodeUnavailable = "unavailable"
)

// MethodCall is one request arriving over the method channel
type MethodCall struct {
	Method    string                 `json:"method"`
	Arguments map[string]interface{} `json:"arguments"`
}

// Result completes a method call. Exactly one method is called, once.
type Result interface {
	Success(result interface{})
	Error(code string, message string, details interface{})
	NotImplemented()
}

// MethodError is the error side of a completed method call
type MethodError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Reply is a completed method call
type Reply struct {
	Value          interface{}
	Err            *MethodError
	NotImplemented bool
}

// ChanResult is a Result delivering into a channel. Create it with
// NewChanResult so completion never blocks the control goroutine.
type ChanResult chan Reply

// NewChanResult creates ChanResult
func NewChanResult() ChanResult {
	return make(ChanResult, 1)
}

// Success implements Result
func (c ChanResult) Success(result interface{}) {
	c <- Reply{Value: result}
}

// Error implements Result
func (c ChanResult) Error(code string, message string, details interface{}) {
	c <- Reply{Err: &MethodError{Code: code, Message: message, Details: details}}
}

// NotImplemented implements Result
func (c ChanResult) NotImplemented() {
	c <- Reply{NotImplemented: true}
}

// Plugin dispatches method calls onto its control goroutine, where the
// session registry lives, and completes them from there.
type Plugin struct {
	control  *Looper
	registry *SessionRegistry
}

// NewPlugin creates Plugin. config.Control is replaced by the plugin's own
// control looper.
func NewPlugin(config SessionConfig) *Plugin {
	control := NewLooper("Control", false)
	config.Control = control
	return &Plugin{
		control:  control,
		registry: NewSessionRegistry(config),
	}
}

// OnMethodCall handles call asynchronously; result is completed later on
// the control goroutine.
func (p *Plugin) OnMethodCall(call MethodCall, result Result) {
	posted := p.control.Post(func() {
		p.handle(call, result)
	})
	if !posted {
		result.Error(CodeUnavailable, ErrLooperQuit.Error(), nil)
	}
}

// Do runs fn on the control goroutine with the registry and waits for it.
func (p *Plugin) Do(fn func(registry *SessionRegistry)) error {
	done := make(chan struct{})
	if !p.control.Post(func() {
		defer close(done)
		fn(p.registry)
	}) {
		return ErrLooperQuit
	}
	<-done
	return nil
}

// Close disposes every live session and stops the control goroutine
func (p *Plugin) Close() error {
	var err error
	if postErr := p.Do(func(registry *SessionRegistry) {
		err = registry.DisposeAll()
	}); postErr != nil {
		return postErr
	}
	p.control.QuitSafely()
	p.control.Join()
	return err
}

func (p *Plugin) handle(call MethodCall, result Result) {
	switch call.Method {
	case MethodRender:
		p.render(call.Arguments, result)
	case MethodDisposeList:
		p.disposeList(call.Arguments, result)
	default:
		Logger().WithField("method", call.Method).Warn(ErrUnknownMethod.Error())
		result.NotImplemented()
	}
}

func (p *Plugin) render(args map[string]interface{}, result Result) {
	id, req, err := parseRenderArgs(args)
	if err != nil {
		result.Error(CodeBadArgs, err.Error(), nil)
		return
	}

	session, err := p.registry.RenderOn(id, req, func(r RenderResult) {
		if r.Err != nil {
			result.Error(CodeRender, r.Err.Error(), r.SurfaceID)
			return
		}
		result.Success(r.SurfaceID)
	})
	if err != nil {
		result.Error(CodeAllocate, err.Error(), nil)
		return
	}
	if session == nil {
		result.Success(nil)
	}
}

func (p *Plugin) disposeList(args map[string]interface{}, result Result) {
	raw, ok := args["textureIds"].([]interface{})
	if !ok && args["textureIds"] != nil {
		result.Error(CodeBadArgs, fmt.Sprintf("%v: textureIds is not a list", ErrBadArgument), nil)
		return
	}

	ids := make([]int64, 0, len(raw))
	var err error
	for _, v := range raw {
		id, convErr := toInt64(v)
		if convErr != nil {
			err = multierr.Append(err, convErr)
			continue
		}
		ids = append(ids, id)
	}
	if err != nil {
		result.Error(CodeBadArgs, err.Error(), nil)
		return
	}

	if err := p.registry.DisposeMany(ids); err != nil {
		Logger().WithError(err).Warn("Dispose finished with errors")
	}
	result.Success(nil)
}

func parseRenderArgs(args map[string]interface{}) (int64, RenderRequest, error) {
	var req RenderRequest
	var err error

	id, e := intArg(args, "textureId")
	err = multierr.Append(err, e)
	req.Path, e = stringArg(args, "path")
	err = multierr.Append(err, e)
	width, e := intArg(args, "width")
	err = multierr.Append(err, e)
	height, e := intArg(args, "height")
	err = multierr.Append(err, e)
	fit, e := intArg(args, "fit")
	err = multierr.Append(err, e)
	req.CachePath, e = stringArg(args, "bitmap")
	err = multierr.Append(err, e)
	req.UseCache, e = boolArg(args, "findCache")
	err = multierr.Append(err, e)
	if err != nil {
		return 0, req, err
	}

	if width <= 0 || height <= 0 {
		return 0, req, fmt.Errorf("%w: size %dx%d", ErrBadArgument, width, height)
	}
	if fit < 0 || fit > 0xFF {
		return 0, req, fmt.Errorf("%w: fit %d", ErrBadArgument, fit)
	}

	req.Width = int(width)
	req.Height = int(height)
	req.Fit = FitMode(fit)
	return id, req, nil
}

func intArg(args map[string]interface{}, key string) (int64, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrBadArgument, key)
	}
	id, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return id, nil
}

func stringArg(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrBadArgument, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, not a string", ErrBadArgument, key, v)
	}
	return s, nil
}

func boolArg(args map[string]interface{}, key string) (bool, error) {
	v, ok := args[key]
	if !ok {
		return false, fmt.Errorf("%w: missing %s", ErrBadArgument, key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is %T, not a bool", ErrBadArgument, key, v)
	}
	return b, nil
}

// toInt64 accepts every numeric type a decoded message may carry.
// Sizes arrive as doubles from some callers; floats are truncated.
func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case float32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrBadArgument, err)
		}
		return int64(f), nil
	default:
		return 0, fmt.Errorf("%w: %T is not a number", ErrBadArgument, v)
	}
}
