package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/jesaworld/sms-backend/internal/config"
	"github.com/jesaworld/sms-backend/internal/database"
	"github.com/jesaworld/sms-backend/internal/handler"
	"github.com/jesaworld/sms-backend/internal/identifier"
	"github.com/jesaworld/sms-backend/internal/queue"
	"github.com/jesaworld/sms-backend/internal/repository"
	"github.com/jesaworld/sms-backend/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional, real deployments use the environment

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is not configured

	users := repository.NewUserRepo(db)
	schools := repository.NewSchoolRepo(db)
	subjects := repository.NewSubjectRepo(db)
	exams := repository.NewExamRepo(db)
	notes := repository.NewNoteRepo(db)
	tokens := repository.NewTokenRepo(db)

	alloc := identifier.New(schools.ExistsNumber, users.ExistsStudentID)

	authH := handler.NewAuthHandler(cfg, users, schools, tokens)
	superH := handler.NewSuperAdminHandler(cfg, schools, users, alloc)
	adminH := handler.NewAdminHandler(cfg, users, schools, subjects, exams, alloc)
	teacherH := handler.NewTeacherHandler(users, exams, notes)
	studentH := handler.NewStudentHandler(users, schools, exams, notes)

	// Verification and 2FA mails are consumed from the queue in-process.
	go queue.StartEmailConsumer(cfg)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, rdb)
	router.RegisterSuperAdmin(e, superH, cfg.JWTSecret, rdb)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)
	router.RegisterTeacher(e, teacherH, cfg.JWTSecret)
	router.RegisterStudent(e, studentH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
