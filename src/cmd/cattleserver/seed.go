package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/geekskaran/Cattel-Backend/src/internal/auth"
	"github.com/geekskaran/Cattel-Backend/src/internal/config"
	"github.com/geekskaran/Cattel-Backend/src/internal/database"
	"github.com/geekskaran/Cattel-Backend/src/internal/database/models"
)

func seedCmd() *cobra.Command {
	var adminPhone, adminPassword string
	var withSamples bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the initial super admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			db, err := database.Initialize(cfg)
			if err != nil {
				return fmt.Errorf("initialize database: %w", err)
			}
			defer func() {
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}
			}()

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}

			if err := seedSuperAdmin(db, adminPhone, adminPassword); err != nil {
				return err
			}
			if withSamples {
				if err := seedSampleAccounts(db); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&adminPhone, "phone", "9000000000", "super admin phone number")
	cmd.Flags().StringVar(&adminPassword, "password", "", "super admin password (required)")
	cmd.Flags().BoolVar(&withSamples, "with-samples", false, "also create sample regional accounts")
	cmd.MarkFlagRequired("password")
	return cmd
}

func seedSuperAdmin(db *gorm.DB, phone, password string) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleSuperAdmin).Count(&count).Error; err != nil {
		return fmt.Errorf("check existing admins: %w", err)
	}
	if count > 0 {
		fmt.Println("Super admin already exists, skipping")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := &models.User{
		Name:         "Super Admin",
		Phone:        phone,
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
		IsActive:     true,
		IsApproved:   true,
	}
	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("create super admin: %w", err)
	}
	fmt.Printf("Created super admin %s (%s)\n", admin.Phone, admin.ID)
	return nil
}

func seedSampleAccounts(db *gorm.DB) error {
	hash, err := auth.HashPassword("changeme123")
	if err != nil {
		return err
	}

	samples := []models.User{
		{
			Name: "Sample Farmer", Phone: "9000000001", PasswordHash: hash,
			Role: models.RoleFarmer, IsActive: true, IsApproved: true,
			AddressState: "Texas", AddressDistrict: "Travis", AddressPIN: "73301",
		},
		{
			Name: "Sample Regional Admin", Phone: "9000000002", PasswordHash: hash,
			Role: models.RoleRegionalAdmin, Region: "Texas",
			IsActive: true, IsApproved: true, AddressState: "Texas",
		},
		{
			Name: "Sample M Admin", Phone: "9000000003", PasswordHash: hash,
			Role: models.RoleMAdmin, Region: "Texas",
			IsActive: true, IsApproved: true, AddressState: "Texas",
		},
	}

	for i := range samples {
		var existing models.User
		err := db.Where("phone = ?", samples[i].Phone).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("check account %s: %w", samples[i].Phone, err)
		}
		if err := db.Create(&samples[i]).Error; err != nil {
			return fmt.Errorf("create account %s: %w", samples[i].Phone, err)
		}
		fmt.Printf("Created %s account %s\n", samples[i].Role, samples[i].Phone)
	}
	return nil
}
