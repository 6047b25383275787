package bitmap

import "errors"

var (
	// ErrShortCache is returned when a cache file holds fewer bytes than the requested pixmap
	ErrShortCache = errors.New("cache file is shorter than the requested pixmap")
	// ErrContextInit wraps every graphics context initialization failure
	ErrContextInit = errors.New("graphics context initialization failed")
	// ErrSessionFailed is reported for renders on a session whose context never came up
	ErrSessionFailed = errors.New("surface session failed")
	// ErrLooperQuit is returned when posting to a looper that stopped accepting work
	ErrLooperQuit = errors.New("looper is quitting")
	// ErrUnknownMethod is returned for method calls the plugin does not implement
	ErrUnknownMethod = errors.New("unknown method")
	// ErrBadArgument is returned for malformed method call arguments
	ErrBadArgument = errors.New("bad argument")
)
