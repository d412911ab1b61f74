package utils

import (
	"time"

	"github.com/sirupsen/logrus"
)

// PerfLog reports how long an outbound call took, warning when it exceeds threshold.
func PerfLog(elapsed time.Duration, threshold time.Duration, str string) {
	if elapsed > threshold {
		logrus.Warnf("PERF: "+str+" took %d ms more than expected (%d ms)", elapsed.Milliseconds(), threshold.Milliseconds())
	} else {
		logrus.Debugf("PERF: "+str+" took %dms", elapsed.Milliseconds())
	}
}
