package feed

import (
	"context"

	"go.uber.org/zap"

	"bimsight/internal/domain"
	"bimsight/internal/service"
)

// ServiceSink evaluates each frame against svc under session. With capture set
// every frame is also stored as a sample.
func ServiceSink(svc *service.ComplianceService, session string, capture bool, logger *zap.Logger) Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, frame domain.Frame) error {
		var (
			eval *service.Evaluation
			err  error
		)
		if capture {
			_, eval, err = svc.Capture(ctx, session, frame.Detections)
		} else {
			eval, err = svc.Evaluate(ctx, session, frame.Detections)
		}
		if err != nil {
			return err
		}

		logger.Debug("frame evaluated",
			zap.Int("frame", frame.Index),
			zap.Int("detections", len(frame.Detections)),
			zap.Float64("score", eval.Report.Score),
			zap.Float64("smoothed", eval.SmoothedScore),
			zap.String("status", string(eval.SmoothedStatus)))
		return nil
	}
}
