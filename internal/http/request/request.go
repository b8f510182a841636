// Package request разбирает параметры пути и запроса, общие для обработчиков.
package request

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/apperr"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// IDParam читает положительный целый параметр пути name.
func IDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(fmt.Sprintf("invalid %s: %q", name, raw))
	}
	return id, nil
}

// Page читает page и page_size. Нечисловые значения игнорируются, границы
// приводит models.Page.Normalize.
func Page(r *http.Request) models.Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	return models.Page{Number: number, Size: size}.Normalize()
}

// TechnicianFilter читает фильтры списка техников.
func TechnicianFilter(r *http.Request) models.TechnicianFilter {
	q := r.URL.Query()
	skillID, _ := strconv.ParseInt(q.Get("skill_id"), 10, 64)
	return models.TechnicianFilter{
		Location: q.Get("location"),
		Skill:    q.Get("skill"),
		SkillID:  skillID,
		Search:   q.Get("search"),
		Ordering: q.Get("ordering"),
		Page:     Page(r),
	}
}

// AdminTechnicianFilter читает фильтры административного списка техников.
// В отличие от публичного списка некорректные значения дают ошибку Validation.
func AdminTechnicianFilter(r *http.Request) (models.AdminTechnicianFilter, error) {
	q := r.URL.Query()
	f := models.AdminTechnicianFilter{
		Location: q.Get("location"),
		Search:   q.Get("search"),
		Page:     Page(r),
	}

	if raw := q.Get("is_approved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, apperr.Validation(fmt.Sprintf("invalid is_approved: %q", raw))
		}
		f.IsApproved = &v
	}
	if raw := q.Get("years_experience"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return f, apperr.Validation(fmt.Sprintf("invalid years_experience: %q", raw))
		}
		f.YearsExperience = &v
	}
	return f, nil
}

// SubscriptionFilter читает фильтры административного списка подписок.
func SubscriptionFilter(r *http.Request) (models.SubscriptionFilter, error) {
	q := r.URL.Query()
	f := models.SubscriptionFilter{
		Status: strings.ToUpper(strings.TrimSpace(q.Get("status"))),
		Search: q.Get("search"),
		Page:   Page(r),
	}

	var err error
	if f.PlanID, err = optionalID(q.Get("plan"), "plan"); err != nil {
		return f, err
	}
	if f.UserID, err = optionalID(q.Get("user"), "user"); err != nil {
		return f, err
	}
	return f, nil
}

func optionalID(raw, name string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(fmt.Sprintf("invalid %s: %q", name, raw))
	}
	return id, nil
}
