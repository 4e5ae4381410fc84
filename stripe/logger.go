package stripe

import (
	stripeapi "github.com/stripe/stripe-go/v82"
	"go.vocdoni.io/dvote/log"
)

// sdkLogger routes the stripe-go logs to the application logger. Request
// traces, which stripe-go emits at info level, are logged at debug level.
type sdkLogger struct{}

var _ stripeapi.LeveledLoggerInterface = sdkLogger{}

func (sdkLogger) Debugf(format string, v ...any) { log.Debugf("stripe: "+format, v...) }

func (sdkLogger) Infof(format string, v ...any) { log.Debugf("stripe: "+format, v...) }

func (sdkLogger) Warnf(format string, v ...any) { log.Warnf("stripe: "+format, v...) }

func (sdkLogger) Errorf(format string, v ...any) { log.Errorf("stripe: "+format, v...) }
