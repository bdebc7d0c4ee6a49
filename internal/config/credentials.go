package config

import (
	"fmt"
	"strings"

	"github.com/mizzouse/WeBot/internal/entity"
	"gopkg.in/ini.v1"
)

const (
	credentialsSection = "Credentials"
	tradeTokenSection  = "TradeToken"

	DefaultCredentialsFile = "User_Credentials.ini"
)

// LoadCredentials reads the plain-text credentials store. The file is owned by
// the user, not round-tripped through the service config.
func LoadCredentials(path string) (entity.Credentials, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultCredentialsFile
	}

	file, err := ini.Load(path)
	if err != nil {
		return entity.Credentials{}, fmt.Errorf("failed to read credentials file: %w", err)
	}

	creds := entity.Credentials{
		Username:   file.Section(credentialsSection).Key("user").String(),
		Password:   file.Section(credentialsSection).Key("pass").String(),
		TradeToken: file.Section(tradeTokenSection).Key("token").String(),
	}

	if strings.TrimSpace(creds.Username) == "" {
		return entity.Credentials{}, fmt.Errorf("credentials file %s: %w: [%s] user", path, entity.ErrNotFound, credentialsSection)
	}
	if strings.TrimSpace(creds.Password) == "" {
		return entity.Credentials{}, fmt.Errorf("credentials file %s: %w: [%s] pass", path, entity.ErrNotFound, credentialsSection)
	}

	return creds, nil
}

// WriteCredentialsTemplate creates a blank credentials file with empty
// Credentials and TradeToken sections for the user to fill in.
func WriteCredentialsTemplate(path string) error {
	if strings.TrimSpace(path) == "" {
		path = DefaultCredentialsFile
	}

	file := ini.Empty()

	credSection, err := file.NewSection(credentialsSection)
	if err != nil {
		return err
	}
	if _, err := credSection.NewKey("user", ""); err != nil {
		return err
	}
	if _, err := credSection.NewKey("pass", ""); err != nil {
		return err
	}

	tokenSection, err := file.NewSection(tradeTokenSection)
	if err != nil {
		return err
	}
	if _, err := tokenSection.NewKey("token", "0"); err != nil {
		return err
	}

	return file.SaveTo(path)
}

// SaveCredentials writes user-provided values back to the credentials file.
func SaveCredentials(path string, creds entity.Credentials) error {
	if strings.TrimSpace(path) == "" {
		path = DefaultCredentialsFile
	}

	file, err := ini.LooseLoad(path)
	if err != nil {
		return err
	}

	file.Section(credentialsSection).Key("user").SetValue(creds.Username)
	file.Section(credentialsSection).Key("pass").SetValue(creds.Password)
	file.Section(tradeTokenSection).Key("token").SetValue(creds.TradeToken)

	return file.SaveTo(path)
}
