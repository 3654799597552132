/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the engine records
  from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation happens in handlers and the engine boundary, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/grindstone/activity-engine/engine"
	"github.com/grindstone/activity-engine/progression"
	"github.com/grindstone/activity-engine/reward"
	"github.com/grindstone/activity-engine/tracker"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// UserStatsDTO is the progression view for the stats panel.
type UserStatsDTO struct {
	UserID      string  `json:"user_id"`
	XP          string  `json:"xp"`
	Level       int     `json:"level"`
	LevelFloor  int64   `json:"level_floor_xp"`
	NextLevelAt int64   `json:"next_level_at_xp"`
	Progress    float64 `json:"progress"`
}

// ActivityDTO represents an activity in API responses.
type ActivityDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// CreateActivityRequest is the request to create an activity.
type CreateActivityRequest struct {
	Name string `json:"name"`
}

// TimerDTO reports the session state; the display poll reads this every
// second.
type TimerDTO struct {
	Running bool   `json:"running"`
	Elapsed string `json:"elapsed"`
}

// StartTimerRequest starts a session against an activity.
type StartTimerRequest struct {
	ActivityName string `json:"activity_name"`
}

// StopTimerRequest selects the reward tier for the completed session.
type StopTimerRequest struct {
	Tier string `json:"tier"`
}

// StopTimerDTO summarizes the completed session.
type StopTimerDTO struct {
	Stopped           bool   `json:"stopped"`
	EntryID           string `json:"entry_id,omitempty"`
	DurationSeconds   int64  `json:"duration_seconds"`
	DurationFormatted string `json:"duration_formatted"`
	EarnedXP          string `json:"earned_xp"`
	XP                string `json:"xp"`
	Level             int    `json:"level"`
}

// TimeEntryDTO represents a history entry.
type TimeEntryDTO struct {
	ID                string `json:"id"`
	ActivityName      string `json:"activity_name"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time,omitempty"`
	DurationSeconds   *int64 `json:"duration_seconds,omitempty"`
	DurationFormatted string `json:"duration_formatted,omitempty"`
	Open              bool   `json:"open"`
}

// TransactionDTO represents an XP ledger entry.
type TransactionDTO struct {
	ID         string `json:"id"`
	Amount     string `json:"xp_amount"`
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
	CreatedAt  string `json:"created_at"`
}

// TierDTO describes a reward tier for the selection catalog.
type TierDTO struct {
	Name   string `json:"name"`
	Ranged bool   `json:"ranged"`
	Rate   int    `json:"rate,omitempty"`
	Min    int    `json:"min,omitempty"`
	Max    int    `json:"max,omitempty"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func userStatsDTO(userID engine.UserID, xp engine.XP, level int) UserStatsDTO {
	p := progression.ProgressFor(xp)
	return UserStatsDTO{
		UserID:      string(userID),
		XP:          xp.String(),
		Level:       level,
		LevelFloor:  p.LevelFloor,
		NextLevelAt: p.NextLevelAt,
		Progress:    p.Fraction,
	}
}

func activityDTO(a engine.Activity) ActivityDTO {
	return ActivityDTO{
		ID:        string(a.ID),
		Name:      a.Name,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

func timeEntryDTO(e engine.TimeEntry) TimeEntryDTO {
	dto := TimeEntryDTO{
		ID:              string(e.ID),
		ActivityName:    e.ActivityName,
		StartTime:       e.StartTime.Format(time.RFC3339),
		DurationSeconds: e.DurationSeconds,
		Open:            e.Open(),
	}
	if e.EndTime != nil {
		dto.EndTime = e.EndTime.Format(time.RFC3339)
	}
	if e.DurationFormatted != nil {
		dto.DurationFormatted = *e.DurationFormatted
	}
	return dto
}

func transactionDTO(tx engine.XPTransaction) TransactionDTO {
	return TransactionDTO{
		ID:         string(tx.ID),
		Amount:     tx.Amount.String(),
		SourceType: string(tx.SourceType),
		SourceID:   string(tx.SourceID),
		CreatedAt:  tx.CreatedAt.Format(time.RFC3339),
	}
}

func stopTimerDTO(res tracker.StopResult, stopped bool) StopTimerDTO {
	dto := StopTimerDTO{
		Stopped:           stopped,
		DurationFormatted: "0:00:00",
		EarnedXP:          "0",
	}
	if stopped {
		dto.EntryID = string(res.EntryID)
		dto.DurationSeconds = res.DurationSeconds
		dto.DurationFormatted = res.DurationFormatted
		dto.EarnedXP = res.EarnedXP.String()
		dto.XP = res.NewXP.String()
		dto.Level = res.NewLevel
	}
	return dto
}

func tierDTO(t reward.Tier) TierDTO {
	spec, _ := reward.RateFor(t)
	dto := TierDTO{Name: string(t), Ranged: spec.Ranged()}
	if spec.Ranged() {
		dto.Min, dto.Max = spec.Range()
	} else {
		dto.Rate = spec.Rate()
	}
	return dto
}
