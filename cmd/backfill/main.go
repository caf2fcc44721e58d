package main // backfill repairs older tenant data

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/jesaworld/sms-backend/internal/config"
	"github.com/jesaworld/sms-backend/internal/database"
	"github.com/jesaworld/sms-backend/internal/identifier"
	"github.com/jesaworld/sms-backend/internal/repository"
)

// The backfill command does two maintenance passes over existing data:
// it prints a validity report of every school and it assigns student IDs
// to student accounts imported before allocation existed.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	users := repository.NewUserRepo(db)
	schools := repository.NewSchoolRepo(db)
	alloc := identifier.New(schools.ExistsNumber, users.ExistsStudentID)

	reportValidity(ctx, schools)
	backfillStudentIDs(ctx, users, schools, alloc)
}

func reportValidity(ctx context.Context, schools *repository.SchoolRepo) {
	list, err := schools.List(ctx)
	if err != nil {
		log.Fatalf("list schools: %v", err)
	}
	now := time.Now().UTC()
	expired := 0
	for _, s := range list {
		status := "active"
		if s.ValidUntil.Before(now) {
			status = "EXPIRED"
			expired++
		}
		log.Printf("school %s (%s): valid until %s [%s], %d users",
			s.SchoolNumber, s.Name, s.ValidUntil.Format("2006-01-02"), status, s.UserCount)
	}
	log.Printf("%d schools, %d expired", len(list), expired)
}

func backfillStudentIDs(ctx context.Context, users *repository.UserRepo, schools *repository.SchoolRepo, alloc *identifier.Allocator) {
	missing, err := users.ListStudentsWithoutID(ctx)
	if err != nil {
		log.Fatalf("list students without id: %v", err)
	}
	if len(missing) == 0 {
		log.Printf("no students missing a student id")
		return
	}

	// School numbers are cached per run; the missing students cluster in a
	// handful of schools.
	numbers := map[uint64]string{}
	fixed := 0
	for _, u := range missing {
		if u.SchoolID == nil {
			log.Printf("student %d (%s) has no school, skipping", u.ID, u.Email)
			continue
		}
		number, ok := numbers[*u.SchoolID]
		if !ok {
			s, err := schools.GetByID(ctx, *u.SchoolID)
			if err != nil {
				log.Printf("student %d (%s): load school %d: %v", u.ID, u.Email, *u.SchoolID, err)
				continue
			}
			number = s.SchoolNumber
			numbers[*u.SchoolID] = number
		}
		sid, err := alloc.StudentID(ctx, number)
		if err != nil {
			log.Printf("student %d (%s): allocate id: %v", u.ID, u.Email, err)
			continue
		}
		if err := users.SetStudentID(ctx, u.ID, sid); err != nil {
			log.Printf("student %d (%s): store id: %v", u.ID, u.Email, err)
			continue
		}
		fixed++
	}
	log.Printf("assigned student ids to %d of %d accounts", fixed, len(missing))
}
