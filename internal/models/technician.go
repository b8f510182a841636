package models

import "time"

// TechnicianProfile профиль техника. Видимость работодателям определяется
// сочетанием одобрения, паузы, пробного периода и активной подписки.
type TechnicianProfile struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"user_id"`
	Username           string     `json:"username"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Bio                string     `json:"bio"`
	YearsExperience    int        `json:"years_experience"`
	Location           string     `json:"location"`
	Skills             []Skill    `json:"skills"`
	IsApproved         bool       `json:"is_approved"`
	IsPaused           bool       `json:"is_paused"`
	TrialEndsAt        *time.Time `json:"trial_ends_at"`
	RatingAvg          float64    `json:"rating_avg"`
	RatingCount        int        `json:"rating_count"`
	DocumentRef        *string    `json:"document_ref"`
	DocumentUploadedAt *time.Time `json:"document_uploaded_at"`
	DocumentExpiresAt  *time.Time `json:"document_expires_at"`
	CreatedAt          time.Time  `json:"created_at"`
}

// Skill навык техника.
type Skill struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TechnicianView профиль с вычисленными полями для ответа API.
type TechnicianView struct {
	*TechnicianProfile
	DocumentExpired bool   `json:"document_expired"`
	DocumentStatus  string `json:"document_status"`
}

// ProfileUpdate изменения профиля техника. Nil-поля не меняются.
// DocumentRef с пустой строкой удаляет документ.
type ProfileUpdate struct {
	Bio             *string
	YearsExperience *int
	Location        *string
	FirstName       *string
	LastName        *string
	SkillNames      []string
	DocumentRef     *string
}

// DummyProfileUpdate тело запроса PUT /technicians/me.
type DummyProfileUpdate struct {
	Bio             *string  `json:"bio" validate:"omitempty,max=5000"`
	YearsExperience *int     `json:"years_experience" validate:"omitempty,min=0,max=60"`
	Location        *string  `json:"location" validate:"omitempty,max=255"`
	FirstName       *string  `json:"first_name" validate:"omitempty,max=150"`
	LastName        *string  `json:"last_name" validate:"omitempty,max=150"`
	SkillNames      []string `json:"skill_names" validate:"omitempty,max=30,dive,required,max=100"`
	DocumentRef     *string  `json:"document_ref" validate:"omitempty,max=1024"`
}

// ToUpdate переводит тело запроса в доменное изменение.
func (d DummyProfileUpdate) ToUpdate() ProfileUpdate {
	return ProfileUpdate{
		Bio:             d.Bio,
		YearsExperience: d.YearsExperience,
		Location:        d.Location,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		SkillNames:      d.SkillNames,
		DocumentRef:     d.DocumentRef,
	}
}
