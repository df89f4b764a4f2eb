package log

import (
	"go.uber.org/fx/fxevent"
)

// FxLogger routes fx lifecycle events through logrus. Successful events are
// only visible at debug level.
type FxLogger struct{}

func (FxLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.Provided:
		if e.Err != nil {
			Error("fx provide", e.ConstructorName, e.Err.Error())
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			Error("fx invoke", e.FunctionName, e.Err.Error())
		}
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			Error("fx start hook", e.FunctionName, e.Err.Error())
		} else {
			Debug("fx start hook", e.FunctionName, e.Runtime)
		}
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			Error("fx stop hook", e.FunctionName, e.Err.Error())
		}
	case *fxevent.Stopping:
		Info("received", e.Signal, "signal, shutting down")
	case *fxevent.Started:
		if e.Err != nil {
			Error("fx start", e.Err.Error())
		}
	case *fxevent.RollingBack:
		Error("fx start failed, rolling back", e.StartErr.Error())
	}
}
