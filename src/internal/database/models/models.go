package models

// AllModels lists every persisted entity for migration
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Cattle{},
		&CattlePhoto{},
		&IdentificationRecord{},
		&IdentificationRequest{},
		&TransferRequest{},
		&TransferRecord{},
		&Notification{},
	}
}
