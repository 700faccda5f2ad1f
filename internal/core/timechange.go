package core

import (
	"context"
	"fmt"
)

// Time-change request statuses. A request starts pending and is moved to
// approved or rejected once by a reviewer. Acknowledgement by the requester
// is recorded in acknowledgedAt and leaves the status unchanged.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// TimeChangeRequest asks for a correction of one attendance time field.
type TimeChangeRequest struct {
	AttendanceID   string
	StaffID        string
	StoreID        string
	Field          string
	CurrentValue   string
	RequestedValue string
	Reason         string
}

// CreateTimeRequest stores a new pending request and returns its id.
// Field is stored as given.
func (s *Service) CreateTimeRequest(ctx context.Context, req TimeChangeRequest) (string, error) {
	if req.AttendanceID == "" {
		return "", fmt.Errorf("%w: attendanceId is required", ErrInvalidParams)
	}
	if req.Field == "" {
		return "", fmt.Errorf("%w: field is required", ErrInvalidParams)
	}
	schema, err := s.reg.Lookup(TableTimeChangeRequests)
	if err != nil {
		return "", err
	}

	var id string
	err = s.run(ctx, "createTimeRequest", func() error {
		id = s.codec.NewID(schema)
		return s.store.Append(TableTimeChangeRequests, Record{
			"id":             id,
			"attendanceId":   req.AttendanceID,
			"staffId":        req.StaffID,
			"storeId":        req.StoreID,
			"field":          req.Field,
			"currentValue":   req.CurrentValue,
			"requestedValue": req.RequestedValue,
			"reason":         req.Reason,
			"status":         StatusPending,
			"createdAt":      s.timestamp(),
		})
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// ReviewTimeRequest moves a pending request to approved or rejected and
// records the reviewer. Only status, reviewedBy and reviewedAt are written;
// the attendance row is not changed.
func (s *Service) ReviewTimeRequest(ctx context.Context, id, status, reviewer string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidParams)
	}
	switch status {
	case StatusApproved, StatusRejected:
	case StatusPending:
		return fmt.Errorf("%w: a request cannot be reviewed back to %s", ErrInvalidTransition, StatusPending)
	default:
		return fmt.Errorf("%w: status must be %s or %s", ErrInvalidParams, StatusApproved, StatusRejected)
	}

	return s.run(ctx, "reviewTimeRequest", func() error {
		rec, ok, err := s.store.FindByID(TableTimeChangeRequests, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: time change request %s", ErrNotFound, id)
		}
		if current := Stringify(rec["status"]); current != StatusPending {
			return fmt.Errorf("%w: request %s is already %s", ErrInvalidTransition, id, current)
		}

		_, err = s.store.UpdateColumns(TableTimeChangeRequests, id, Record{
			"status":     status,
			"reviewedBy": reviewer,
			"reviewedAt": s.timestamp(),
		})
		return err
	})
}

// AckTimeRequest records that the requester has seen the review outcome.
// Only reviewed requests can be acknowledged, and only once.
func (s *Service) AckTimeRequest(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidParams)
	}

	return s.run(ctx, "ackTimeRequest", func() error {
		rec, ok, err := s.store.FindByID(TableTimeChangeRequests, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: time change request %s", ErrNotFound, id)
		}
		switch Stringify(rec["status"]) {
		case StatusApproved, StatusRejected:
		default:
			return fmt.Errorf("%w: request %s has not been reviewed", ErrInvalidTransition, id)
		}
		if Stringify(rec["acknowledgedAt"]) != "" {
			return fmt.Errorf("%w: request %s is already acknowledged", ErrInvalidTransition, id)
		}

		_, err = s.store.UpdateColumns(TableTimeChangeRequests, id, Record{
			"acknowledgedAt": s.timestamp(),
		})
		return err
	})
}
