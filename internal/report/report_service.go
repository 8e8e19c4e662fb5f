// Package report provides the core logic for handling partner reports,
// including reputation management and applying escalating bans.
package report

import (
	"time"

	"pairgo/backend/internal/analysis"
	"pairgo/backend/internal/config"
	"pairgo/backend/internal/models"
	"pairgo/backend/internal/storage"
)

// Service handles the business logic for partner reports.
type Service struct {
	Storage storage.Storage
}

// NewService creates a new report service.
func NewService(s storage.Storage) *Service {
	return &Service{Storage: s}
}

// HandleReport persists a new report, applies the reputation penalty and
// re-evaluates the reported user's ban state.
func (s *Service) HandleReport(report *models.Report) error {
	if err := s.Storage.SaveReport(report); err != nil {
		return err
	}

	weight := analysis.GetWeight(report.Severity)
	if err := s.Storage.UpdateUserReputation(report.ReportedUserID, -weight); err != nil {
		return err
	}

	return s.CheckForBan(report.ReportedUserID)
}

// CheckForBan bans a user whose reputation fell below the threshold or who
// accumulated too many reports inside the frequency window.
func (s *Service) CheckForBan(userID string) error {
	user, err := s.Storage.GetUserByID(userID)
	if err != nil {
		return err
	}

	if user.ReputationScore < config.BanThresholdReputation {
		return s.applyBan(user)
	}

	reports, err := s.Storage.GetReportsForUser(userID, time.Now().Add(-config.BanFrequencyWindow))
	if err != nil {
		return err
	}
	if len(reports) > config.BanThresholdFrequency {
		return s.applyBan(user)
	}

	return nil
}

func (s *Service) applyBan(user *models.User) error {
	level := 1
	if user.LastBanAt > 0 {
		if time.Since(time.Unix(user.LastBanAt, 0)) < 7*24*time.Hour {
			level = 2
		} else if time.Since(time.Unix(user.LastBanAt, 0)) < 30*24*time.Hour {
			level = 3
		}
	}

	duration := getBanDuration(level)
	user.BanLevel = level
	user.BanEndTime = time.Now().Add(duration).Unix()
	user.LastBanAt = time.Now().Unix()
	if err := s.Storage.UpdateUser(user); err != nil {
		return err
	}

	// The queue manager checks the flag, not the user row, so admission
	// stays a single Redis read.
	return s.Storage.SetBan(user.ID, duration)
}

func getBanDuration(level int) time.Duration {
	switch level {
	case 2:
		return config.BanLevel2Duration
	case 3:
		return config.BanLevel3Duration
	default:
		return config.BanLevel1Duration
	}
}
