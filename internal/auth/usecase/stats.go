package usecase

import (
	"context"

	"github.com/shandysiswandi/adminauth/internal/auth/entity"
	"github.com/shandysiswandi/adminauth/internal/pkg/goerror"
	"github.com/shandysiswandi/adminauth/internal/pkg/instrument"
)

const (
	permObjOTPStats = "otp_stats"
	permActRead     = "read"
)

func (s *Usecase) Stats(ctx context.Context) (*entity.Stats, error) {
	ctx, span := s.startSpan(ctx, "Stats")
	defer span.End()

	if _, err := s.authenticatedAndAuthorized(ctx, permObjOTPStats, permActRead); err != nil {
		return nil, err
	}

	stats, err := s.repoDB.GetOTPStats(ctx)
	if err != nil {
		instrument.Log(instrument.CategoryOTP).ErrorContext(ctx, "failed to repo get otp stats", "error", err)
		return nil, goerror.NewServer(err)
	}

	return stats, nil
}
