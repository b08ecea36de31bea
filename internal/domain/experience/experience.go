package experience

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Date is a calendar date serialised as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	// full timestamps are accepted and truncated to the day
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = Date{v.UTC()}
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

type WorkExperience struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Company     string    `json:"company"`
	Title       string    `json:"title"`
	StartDate   Date      `json:"start_date"`
	EndDate     *Date     `json:"end_date"`
	Description *string   `json:"description"`
	LogoURL     *string   `json:"logo_url"`
	Order       int       `json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrCompanyRequired   = errors.New("company is required")
	ErrTitleRequired     = errors.New("title is required")
	ErrStartDateRequired = errors.New("start_date is required")
	ErrEndBeforeStart    = errors.New("end_date must not be before start_date")
)

func (w WorkExperience) ItemID() uuid.UUID { return w.ID }

func (w WorkExperience) OrderIndex() int { return w.Order }

func (w WorkExperience) WithOrderIndex(i int) WorkExperience {
	w.Order = i
	return w
}

// Current reports a role without an end date.
func (w WorkExperience) Current() bool {
	return w.EndDate == nil || w.EndDate.IsZero()
}

func (w WorkExperience) WithIdentity(id, userID uuid.UUID) WorkExperience {
	w.ID = id
	w.UserID = userID
	return w
}

func (w WorkExperience) Validate() error {
	var errs []error
	if strings.TrimSpace(w.Company) == "" {
		errs = append(errs, ErrCompanyRequired)
	}
	if strings.TrimSpace(w.Title) == "" {
		errs = append(errs, ErrTitleRequired)
	}
	if w.StartDate.IsZero() {
		errs = append(errs, ErrStartDateRequired)
	}
	if !w.Current() && !w.StartDate.IsZero() && w.EndDate.Before(w.StartDate.Time) {
		errs = append(errs, ErrEndBeforeStart)
	}
	return errors.Join(errs...)
}
