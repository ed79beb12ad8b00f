package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/tutorlink/tutorlink-backend/internal/config"
	"github.com/tutorlink/tutorlink-backend/internal/database"
	"github.com/tutorlink/tutorlink-backend/internal/logger"
	"github.com/tutorlink/tutorlink-backend/internal/model"
	"github.com/tutorlink/tutorlink-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	var roleFlag string
	flag.StringVar(&roleFlag, "role", string(model.RoleAdmin), "Account role: admin, teacher or student")
	flag.Parse()

	role := model.Role(roleFlag)
	if !role.Valid() {
		fmt.Printf("Error: unknown role %q\n", roleFlag)
		os.Exit(2)
	}

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)
	teacherRepo := repository.NewTeacherRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("=== Create New %s Account ===\n", strings.ToUpper(roleFlag[:1])+roleFlag[1:])

	firstName := prompt(reader, "Enter First Name: ")
	if firstName == "" {
		fmt.Println("Error: First name is required")
		return
	}
	lastName := prompt(reader, "Enter Last Name (optional): ")

	email := prompt(reader, "Enter Email: ")
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println()
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	var subject, grade string
	switch role {
	case model.RoleTeacher:
		subject = prompt(reader, "Enter Subject (optional): ")
	case model.RoleStudent:
		grade = prompt(reader, "Enter School Grade (optional): ")
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	profileID := int64(0)
	switch role {
	case model.RoleTeacher:
		t := &model.Teacher{UserID: user.ID, Subject: subject}
		if err := teacherRepo.Create(ctx, t); err != nil {
			log.Fatal().Err(err).Int64("user_id", user.ID).Msg("Failed to create teacher profile")
		}
		profileID = t.ID
	case model.RoleStudent:
		s := &model.Student{UserID: user.ID, SchoolGrade: grade}
		if err := studentRepo.Create(ctx, s); err != nil {
			log.Fatal().Err(err).Int64("user_id", user.ID).Msg("Failed to create student profile")
		}
		profileID = s.ID
	}

	fmt.Printf("\nSuccess! %s '%s' (%s) created with user ID: %d\n", role, user.FullName(), user.Email, user.ID)
	if profileID > 0 {
		fmt.Printf("Profile ID: %d\n", profileID)
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	s, _ := reader.ReadString('\n')
	return strings.TrimSpace(s)
}
