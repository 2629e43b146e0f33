package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	cryptoDomain "github.com/fieldsrv/guardpost/internal/crypto/domain"
	cryptoHTTP "github.com/fieldsrv/guardpost/internal/crypto/http"
	cryptoService "github.com/fieldsrv/guardpost/internal/crypto/service"
	cryptoUsecase "github.com/fieldsrv/guardpost/internal/crypto/usecase"
)

// KMSService returns the KMS service used for master key unwrapping.
func (c *Container) KMSService() (cryptoService.KMSService, error) {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService, nil
}

// AEADManager returns the AEAD cipher factory.
func (c *Container) AEADManager() (cryptoService.AEADManager, error) {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager, nil
}

// MasterKey returns the master key, resolving it on first access.
//
// Resolution order: GUARDPOST_MASTER_KEY hex, then the KMS-wrapped
// ciphertext when a keeper URI is configured, then a fresh generated key
// whose hex is logged once so an operator can pin it.
func (c *Container) MasterKey() (*cryptoDomain.MasterKey, error) {
	var err error
	c.masterKeyInit.Do(func() {
		c.masterKey, err = c.initMasterKey()
		if err != nil {
			c.initErrors["masterKey"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["masterKey"]; exists {
		return nil, storedErr
	}
	return c.masterKey, nil
}

// KeyManager returns the key lifecycle manager with the initial primary
// key derived and the signing keypair generated.
func (c *Container) KeyManager() (cryptoService.KeyManager, error) {
	var err error
	c.keyManagerInit.Do(func() {
		c.keyManager, err = c.initKeyManager()
		if err != nil {
			c.initErrors["keyManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyManager"]; exists {
		return nil, storedErr
	}
	return c.keyManager, nil
}

// Encryptor returns the payload encryption service.
func (c *Container) Encryptor() (cryptoService.Encryptor, error) {
	var err error
	c.encryptorInit.Do(func() {
		c.encryptor, err = c.initEncryptor()
		if err != nil {
			c.initErrors["encryptor"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["encryptor"]; exists {
		return nil, storedErr
	}
	return c.encryptor, nil
}

// FieldRegistry returns the field encryption registry seeded with the
// built-in sensitive table/field map.
func (c *Container) FieldRegistry() (*cryptoService.FieldRegistry, error) {
	var err error
	c.fieldRegistryInit.Do(func() {
		c.fieldRegistry, err = c.initFieldRegistry()
		if err != nil {
			c.initErrors["fieldRegistry"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fieldRegistry"]; exists {
		return nil, storedErr
	}
	return c.fieldRegistry, nil
}

// PIIService returns the PII pattern detection service.
func (c *Container) PIIService() (*cryptoService.PIIService, error) {
	c.piiServiceInit.Do(func() {
		c.piiService = cryptoService.NewPIIService()
	})
	return c.piiService, nil
}

// EncryptionUseCase returns the encryption use case instance.
func (c *Container) EncryptionUseCase() (cryptoUsecase.EncryptionUseCase, error) {
	var err error
	c.encryptionUseCaseInit.Do(func() {
		c.encryptionUseCase, err = c.initEncryptionUseCase()
		if err != nil {
			c.initErrors["encryptionUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["encryptionUseCase"]; exists {
		return nil, storedErr
	}
	return c.encryptionUseCase, nil
}

// EncryptionHandler returns the encryption HTTP handler instance.
func (c *Container) EncryptionHandler() (*cryptoHTTP.EncryptionHandler, error) {
	var err error
	c.encryptionHandlerInit.Do(func() {
		c.encryptionHandler, err = c.initEncryptionHandler()
		if err != nil {
			c.initErrors["encryptionHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["encryptionHandler"]; exists {
		return nil, storedErr
	}
	return c.encryptionHandler, nil
}

// initMasterKey resolves the master key from configuration.
func (c *Container) initMasterKey() (*cryptoDomain.MasterKey, error) {
	if c.config.MasterKeyHex != "" {
		masterKey, err := cryptoDomain.LoadMasterKeyFromHex(c.config.MasterKeyHex)
		if err != nil {
			return nil, fmt.Errorf("failed to load master key: %w", err)
		}
		return masterKey, nil
	}

	if c.config.KMSKeyURI != "" && c.config.MasterKeyWrapped != "" {
		return c.unwrapMasterKey()
	}

	masterKey, err := cryptoDomain.GenerateMasterKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}

	// Surfaced once at startup: without pinning this key, encrypted data
	// does not survive a restart.
	c.Logger().Warn("no master key configured, generated an ephemeral one",
		slog.String("master_key_hex", masterKey.Hex()),
	)

	return masterKey, nil
}

// unwrapMasterKey decrypts the wrapped master key ciphertext through the
// configured KMS keeper.
func (c *Container) unwrapMasterKey() (*cryptoDomain.MasterKey, error) {
	kmsService, err := c.KMSService()
	if err != nil {
		return nil, fmt.Errorf("failed to get kms service for master key: %w", err)
	}

	ctx := context.Background()
	keeper, err := kmsService.OpenKeeper(ctx, c.config.KMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open kms keeper for master key: %w", err)
	}
	defer func() {
		_ = keeper.Close()
	}()

	ciphertext, err := base64.StdEncoding.DecodeString(c.config.MasterKeyWrapped)
	if err != nil {
		return nil, fmt.Errorf("failed to decode wrapped master key: %w", err)
	}

	raw, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap master key: %w", err)
	}
	if len(raw) != cryptoDomain.KeySize {
		return nil, fmt.Errorf("unwrapped master key has %d bytes, want %d", len(raw), cryptoDomain.KeySize)
	}

	return &cryptoDomain.MasterKey{Key: raw}, nil
}

// initKeyManager creates and initializes the key manager.
func (c *Container) initKeyManager() (cryptoService.KeyManager, error) {
	aeadManager, err := c.AEADManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get aead manager for key manager: %w", err)
	}

	masterKey, err := c.MasterKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get master key for key manager: %w", err)
	}

	algorithm, err := cryptoDomain.ParseAlgorithm(c.config.EncryptionAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption algorithm: %w", err)
	}

	keyManager := cryptoService.NewKeyManager(aeadManager, masterKey, algorithm, c.config.KeyRotationPeriod)
	if err := keyManager.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize key manager: %w", err)
	}

	return keyManager, nil
}

// initEncryptor creates the encryption service.
func (c *Container) initEncryptor() (cryptoService.Encryptor, error) {
	keyManager, err := c.KeyManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get key manager for encryptor: %w", err)
	}

	aeadManager, err := c.AEADManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get aead manager for encryptor: %w", err)
	}

	return cryptoService.NewEncryptionService(keyManager, aeadManager), nil
}

// initFieldRegistry creates the field encryption registry.
func (c *Container) initFieldRegistry() (*cryptoService.FieldRegistry, error) {
	encryptor, err := c.Encryptor()
	if err != nil {
		return nil, fmt.Errorf("failed to get encryptor for field registry: %w", err)
	}
	return cryptoService.NewDefaultFieldRegistry(encryptor), nil
}

// initEncryptionUseCase creates the encryption use case with all its dependencies.
func (c *Container) initEncryptionUseCase() (cryptoUsecase.EncryptionUseCase, error) {
	keyManager, err := c.KeyManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get key manager for encryption use case: %w", err)
	}

	encryptor, err := c.Encryptor()
	if err != nil {
		return nil, fmt.Errorf("failed to get encryptor for encryption use case: %w", err)
	}

	fieldRegistry, err := c.FieldRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to get field registry for encryption use case: %w", err)
	}

	piiService, err := c.PIIService()
	if err != nil {
		return nil, fmt.Errorf("failed to get pii service for encryption use case: %w", err)
	}

	useCase := cryptoUsecase.NewEncryptionUseCase(
		keyManager,
		encryptor,
		fieldRegistry,
		piiService,
		c.config.KeyRotationPeriod,
		c.Logger(),
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for encryption use case: %w", err)
	}

	return cryptoUsecase.NewEncryptionUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initEncryptionHandler creates the encryption HTTP handler.
func (c *Container) initEncryptionHandler() (*cryptoHTTP.EncryptionHandler, error) {
	useCase, err := c.EncryptionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get encryption use case for handler: %w", err)
	}
	return cryptoHTTP.NewEncryptionHandler(useCase, c.Logger()), nil
}
