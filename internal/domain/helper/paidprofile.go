package helper

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/carrydesk/carrydesk/internal/shared/biztime"
	"github.com/carrydesk/carrydesk/internal/shared/errors"
	"github.com/carrydesk/carrydesk/internal/shared/id"
)

const MaxBioLength = 1000

// PaidHelperProfile is the public card of a paid helper. vouchesForAccess is
// the number of regular vouches the helper had when paid access was granted.
type PaidHelperProfile struct {
	id               uint
	sid              string
	userID           string
	bio              string
	bioSetAt         *time.Time
	vouchesForAccess int
	createdAt        time.Time
	updatedAt        time.Time
}

type PaidHelperProfileRecord struct {
	ID               uint
	SID              string
	UserID           string
	Bio              string
	BioSetAt         *time.Time
	VouchesForAccess int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewPaidHelperProfile(userID string, vouchesForAccess int) (*PaidHelperProfile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.NewValidationError("user_id is required")
	}
	if vouchesForAccess < 0 {
		return nil, errors.NewValidationError("vouches_for_access must not be negative")
	}
	sid, err := id.NewPaidHelperProfileID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate profile ID: %w", err)
	}
	now := biztime.Now()
	return &PaidHelperProfile{
		sid:              sid,
		userID:           userID,
		vouchesForAccess: vouchesForAccess,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

func ReconstructPaidHelperProfile(r PaidHelperProfileRecord) (*PaidHelperProfile, error) {
	if r.ID == 0 {
		return nil, fmt.Errorf("profile ID cannot be zero")
	}
	return &PaidHelperProfile{
		id:               r.ID,
		sid:              r.SID,
		userID:           r.UserID,
		bio:              r.Bio,
		bioSetAt:         r.BioSetAt,
		vouchesForAccess: r.VouchesForAccess,
		createdAt:        r.CreatedAt,
		updatedAt:        r.UpdatedAt,
	}, nil
}

func (p *PaidHelperProfile) ID() uint              { return p.id }
func (p *PaidHelperProfile) SID() string           { return p.sid }
func (p *PaidHelperProfile) UserID() string        { return p.userID }
func (p *PaidHelperProfile) Bio() string           { return p.bio }
func (p *PaidHelperProfile) BioSetAt() *time.Time  { return p.bioSetAt }
func (p *PaidHelperProfile) VouchesForAccess() int { return p.vouchesForAccess }
func (p *PaidHelperProfile) CreatedAt() time.Time  { return p.createdAt }
func (p *PaidHelperProfile) UpdatedAt() time.Time  { return p.updatedAt }

func (p *PaidHelperProfile) SetID(id uint) error {
	if p.id != 0 {
		return fmt.Errorf("profile ID is already set")
	}
	p.id = id
	return nil
}

// SetBio replaces the bio and stamps when it was written.
func (p *PaidHelperProfile) SetBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return errors.NewValidationError(fmt.Sprintf("bio exceeds maximum length of %d characters", MaxBioLength))
	}
	now := biztime.Now()
	if !now.After(p.updatedAt) {
		now = p.updatedAt.Add(time.Millisecond)
	}
	p.bio = bio
	p.bioSetAt = &now
	p.updatedAt = now
	return nil
}
