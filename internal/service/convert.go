package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukerupert/academy/internal/pricing"
	"github.com/dukerupert/academy/internal/repository"
)

// pgUUID maps uuid.Nil to NULL.
func pgUUID(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}

func fromPgUUID(id pgtype.UUID) uuid.UUID {
	if !id.Valid {
		return uuid.Nil
	}
	return id.Bytes
}

func pgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func pgTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func toPricingCourse(c repository.Course) pricing.Course {
	return pricing.Course{
		ID:        c.ID,
		Title:     c.Title,
		Price:     c.Price,
		TeacherID: c.TeacherID,
		GroupIDs:  c.GroupIDs,
		ShowInNew: c.ShowInNew,
	}
}

func toPricingDiscount(d repository.Discount) *pricing.Discount {
	return &pricing.Discount{
		ID:         d.ID,
		Code:       d.Code.String,
		Amount:     d.Amount,
		AmountType: d.AmountType,
		EmmitTo:    d.EmmitTo,
		EmmitToID:  fromPgUUID(d.EmmitToID),
		Status:     d.Status,
		StartDate:  d.StartDate,
		EndDate:    d.EndDate,
		SingleUse:  d.SingleUse,
	}
}
