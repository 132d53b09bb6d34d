package store

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"aibvs/core/utils"
)

// Seed provisions the default operator accounts, the three radio chains
// and the failover scenario catalog. It is idempotent: each block is
// skipped when rows already exist.
func Seed(ctx context.Context, db *DB, logger *utils.Logger) error {
	users := NewUsersStore(db)
	admin, err := users.FindByUsername(ctx, "admin")
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if admin == nil {
		logger.Printf("seeding default users")
		for _, u := range []struct {
			username, password, fullName, email, role string
		}{
			{"admin", "admin123", "Administrator", "admin@ccr-casa.ma", RoleAdmin},
			{"atsep", "atsep123", "ATSEP Operator", "atsep@ccr-casa.ma", RoleATSEP},
		} {
			hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			if _, err := users.Create(ctx, &User{
				Username:     u.username,
				PasswordHash: string(hash),
				FullName:     u.fullName,
				Email:        u.email,
				Role:         u.role,
			}); err != nil {
				return fmt.Errorf("seed user %s: %w", u.username, err)
			}
		}
	}

	var systemCount int
	if err := db.queryRow(ctx, `SELECT COUNT(*) FROM systems`).Scan(&systemCount); err != nil {
		return fmt.Errorf("seed systems: %w", err)
	}
	systems := NewSystemsStore(db)
	if systemCount == 0 {
		logger.Printf("seeding default systems")
		for _, sys := range []System{
			{Name: "SITTI", Type: "VHF/HF", Status: SystemActive, Location: "CCR Casablanca",
				Frequency: "118.1-136.975 MHz / 2-30 MHz", Description: "Système principal de communication sol-air"},
			{Name: "GAREX300", Type: "VHF", Status: SystemInactive, Location: "CCR Casablanca",
				Frequency: "118.1-136.975 MHz", Description: "Système de secours VHF"},
			{Name: "PCR960M", Type: "HF", Status: SystemInactive, Location: "CCR Casablanca",
				Frequency: "2-30 MHz", Description: "Système de secours HF"},
		} {
			s := sys
			if _, err := systems.Create(ctx, &s); err != nil {
				return fmt.Errorf("seed system %s: %w", sys.Name, err)
			}
		}
	}

	var scenarioCount int
	if err := db.queryRow(ctx, `SELECT COUNT(*) FROM scenarios`).Scan(&scenarioCount); err != nil {
		return fmt.Errorf("seed scenarios: %w", err)
	}
	if scenarioCount == 0 {
		logger.Printf("seeding default scenarios")
		sitti, err := findSystemID(ctx, db, "SITTI")
		if err != nil {
			return err
		}
		garex, err := findSystemID(ctx, db, "GAREX300")
		if err != nil {
			return err
		}
		pcr, err := findSystemID(ctx, db, "PCR960M")
		if err != nil {
			return err
		}
		scenarios := NewScenariosStore(db)
		for _, sc := range []Scenario{
			{
				Name:           "Basculement SITTI → PCR960M",
				Description:    "Basculement du système principal vers le système de secours HF",
				SourceSystemID: sitti,
				TargetSystemID: pcr,
				Steps: []string{
					"Vérifier l'état du système SITTI",
					"Activer le système PCR960M",
					"Transférer les fréquences HF",
					"Tester la communication",
					"Confirmer le basculement",
				},
				EstimatedTime: 5,
				Priority:      PriorityHigh,
			},
			{
				Name:           "Basculement SITTI → GAREX300",
				Description:    "Basculement du système principal vers le système de secours VHF",
				SourceSystemID: sitti,
				TargetSystemID: garex,
				Steps: []string{
					"Vérifier l'état du système SITTI",
					"Activer le système GAREX300",
					"Transférer les fréquences VHF",
					"Tester la communication",
					"Confirmer le basculement",
				},
				EstimatedTime: 5,
				Priority:      PriorityHigh,
			},
			{
				Name:           "Panne Totale SITTI",
				Description:    "Activation simultanée des systèmes de secours",
				SourceSystemID: sitti,
				TargetSystemID: nil,
				Steps: []string{
					"Diagnostiquer la panne SITTI",
					"Activer PCR960M pour HF",
					"Activer GAREX300 pour VHF",
					"Coordonner avec les aéronefs",
					"Documenter l'incident",
				},
				EstimatedTime: 10,
				Priority:      PriorityCritical,
			},
		} {
			s := sc
			if _, err := scenarios.Create(ctx, &s); err != nil {
				return fmt.Errorf("seed scenario %s: %w", sc.Name, err)
			}
		}
	}
	return nil
}

func findSystemID(ctx context.Context, db *DB, name string) (*int64, error) {
	var id int64
	if err := db.queryRow(ctx, `SELECT id FROM systems WHERE name=?`, name).Scan(&id); err != nil {
		return nil, fmt.Errorf("lookup system %s: %w", name, err)
	}
	return &id, nil
}
