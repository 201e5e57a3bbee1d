package postgres

import (
	"encoding/json"

	"github.com/jmoiron/sqlx"

	"github.com/brookside/clinic-portal/internal/repository"
)

type appointmentRepository struct {
	db *sqlx.DB
}

type orderRepository struct {
	db *sqlx.DB
}

type ratingRepository struct {
	db *sqlx.DB
}

type catalogRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewOrderRepository(db *sqlx.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

func NewRatingRepository(db *sqlx.DB) repository.RatingRepository {
	return &ratingRepository{db: db}
}

func NewCatalogRepository(db *sqlx.DB) repository.CatalogRepository {
	return &catalogRepository{db: db}
}

// jsonb column helpers. Marshal failures cannot happen for our closed model
// types, so marshalColumn keeps the call sites flat.
func marshalColumn(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func marshalOptional[T any](v *T) []byte {
	if v == nil {
		return nil
	}
	return marshalColumn(v)
}

func unmarshalColumn(b []byte, dst interface{}) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}
