// Package docexpiry описывает политику срока действия документов техника
// (справка о несудимости): документ действителен 180 дней с момента загрузки.
package docexpiry

import "time"

// Validity срок действия загруженного документа.
const Validity = 180 * 24 * time.Hour

// ExpiresAt возвращает дату истечения документа, загруженного в uploadedAt.
// Для nil (документа нет) возвращает nil.
func ExpiresAt(uploadedAt *time.Time) *time.Time {
	if uploadedAt == nil {
		return nil
	}
	exp := uploadedAt.Add(Validity)
	return &exp
}

// IsExpired сообщает, истёк ли документ на момент now.
// Отсутствие даты истечения считается истёкшим документом.
func IsExpired(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return true
	}
	return !now.Before(*expiresAt)
}

// Status возвращает человекочитаемый статус документа: missing, expired или valid.
func Status(present bool, expiresAt *time.Time, now time.Time) string {
	switch {
	case !present:
		return "missing"
	case IsExpired(expiresAt, now):
		return "expired"
	default:
		return "valid"
	}
}
