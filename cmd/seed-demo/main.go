package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/tutorlink/tutorlink-backend/internal/config"
	"github.com/tutorlink/tutorlink-backend/internal/database"
	"github.com/tutorlink/tutorlink-backend/internal/logger"
	"github.com/tutorlink/tutorlink-backend/internal/model"
	"github.com/tutorlink/tutorlink-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const demoPassword = "tutorlink123"

func main() {
	var count int
	flag.IntVar(&count, "students", 20, "Number of demo students to create")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	teacherRepo := repository.NewTeacherRepository(pool)

	// One hash for every demo account keeps seeding fast.
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	fmt.Println("=== Seeding demo teacher ===")

	teacherUser := &model.User{
		Email:        "teacher@demo.tutorlink.test",
		PasswordHash: string(hash),
		FirstName:    "Demo",
		LastName:     "Teacher",
		Role:         model.RoleTeacher,
	}
	if err := userRepo.Create(ctx, teacherUser); err != nil {
		log.Fatal().Err(err).Msg("Failed to create demo teacher")
	}
	teacher := &model.Teacher{UserID: teacherUser.ID, Subject: "Mathematics"}
	if err := teacherRepo.Create(ctx, teacher); err != nil {
		log.Fatal().Err(err).Msg("Failed to create teacher profile")
	}
	fmt.Printf("Teacher %s (teacher ID %d)\n", teacherUser.Email, teacher.ID)

	fmt.Printf("=== Seeding %d students ===\n", count)

	grades := []string{"Grade 7", "Grade 8", "Grade 9"}
	successCount := 0
	for i := 0; i < count; i++ {
		user := &model.User{
			Email:        fmt.Sprintf("student%02d@demo.tutorlink.test", i+1),
			PasswordHash: string(hash),
			FirstName:    "Student",
			LastName:     fmt.Sprintf("%02d", i+1),
			Role:         model.RoleStudent,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			fmt.Printf("Error creating %s: %v\n", user.Email, err)
			continue
		}

		student := &model.Student{UserID: user.ID, SchoolGrade: grades[i%len(grades)], Level: "beginner"}
		if err := studentRepo.Create(ctx, student); err != nil {
			fmt.Printf("Error creating profile for %s: %v\n", user.Email, err)
			continue
		}

		successCount++
		if (i+1)%10 == 0 {
			fmt.Printf("Created %d students...\n", i+1)
		}
	}

	fmt.Printf("\nSeed completed! Added %d/%d students. Password for every account: %s\n", successCount, count, demoPassword)
}
