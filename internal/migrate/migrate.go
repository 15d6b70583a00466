package migrate

import (
	"context"

	"github.com/aumentovaneza/TapLink-sub001/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateExtensions       bool // pgcrypto
	CreateChecks           bool // CHECK-constraint для целостности
	CreateIndexes          bool // индексы поверх GORM-тегов
	CreateUpdatedAtTrigger bool // триггер обновления updated_at
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateExtensions:       true,
		CreateChecks:           true,
		CreateIndexes:          true,
		CreateUpdatedAtTrigger: true,
	}
}

func MigrateHardwareDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	log.Info("Начало миграции базы данных заказов оборудования")

	if opt.CreateExtensions {
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
			log.Error("Не удалось включить расширение pgcrypto", zap.Error(err))
			return err
		}
	}

	log.Info("Создание таблиц hardware_orders, tag_colors и profiles")
	if err := db.AutoMigrate(&models.HardwareOrder{}, &models.TagColor{}, &models.Profile{}); err != nil {
		log.Error("Не удалось создать таблицы", zap.Error(err))
		return err
	}

	if opt.CreateUpdatedAtTrigger {
		if err := db.Exec(`
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_hardware_orders_updated ON hardware_orders;
CREATE TRIGGER trg_hardware_orders_updated
BEFORE UPDATE ON hardware_orders
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`).Error; err != nil {
			log.Error("Не удалось создать триггер updated_at", zap.Error(err))
			return err
		}
	}

	if opt.CreateChecks {
		log.Info("Создание CHECK-ограничений")

		// Статусы (так как храним TEXT)
		if err := db.Exec(`
ALTER TABLE hardware_orders
  DROP CONSTRAINT IF EXISTS chk_hardware_orders_status_allowed;
ALTER TABLE hardware_orders
  ADD CONSTRAINT chk_hardware_orders_status_allowed
  CHECK (status IN ('ORDER_STATUS_PENDING','ORDER_STATUS_PROCESSING','ORDER_STATUS_READY',
                    'ORDER_STATUS_SHIPPED','ORDER_STATUS_COMPLETED','ORDER_STATUS_CANCELLED'));
`).Error; err != nil {
			log.Error("Не удалось создать CHECK для статусов", zap.Error(err))
			return err
		}

		// Типы продуктов
		if err := db.Exec(`
ALTER TABLE hardware_orders
  DROP CONSTRAINT IF EXISTS chk_hardware_orders_product_allowed;
ALTER TABLE hardware_orders
  ADD CONSTRAINT chk_hardware_orders_product_allowed
  CHECK (product_type IN ('PRODUCT_TYPE_TAG','PRODUCT_TYPE_CARD','PRODUCT_TYPE_STICKER'));
`).Error; err != nil {
			log.Error("Не удалось создать CHECK для типов продуктов", zap.Error(err))
			return err
		}

		// Количество >= 1
		if err := db.Exec(`
ALTER TABLE hardware_orders
  DROP CONSTRAINT IF EXISTS chk_hardware_orders_quantity_min;
ALTER TABLE hardware_orders
  ADD CONSTRAINT chk_hardware_orders_quantity_min
  CHECK (quantity >= 1);
`).Error; err != nil {
			log.Error("Не удалось создать CHECK для количества", zap.Error(err))
			return err
		}

		log.Info("CHECK-ограничения успешно созданы")
	}

	if opt.CreateIndexes {
		log.Info("Создание индексов")

		// Для выборок: заказы пользователя по дате
		if err := db.Exec(`
CREATE INDEX IF NOT EXISTS ix_hardware_orders_user_created
ON hardware_orders (user_id, created_at DESC);
`).Error; err != nil {
			log.Error("Не удалось создать индекс ix_hardware_orders_user_created", zap.Error(err))
			return err
		}

		// Дешёвый фильтр для sweeper'а и админских выборок
		if err := db.Exec(`
CREATE INDEX IF NOT EXISTS ix_hardware_orders_status_created
ON hardware_orders (status, created_at DESC);
`).Error; err != nil {
			log.Error("Не удалось создать индекс ix_hardware_orders_status_created", zap.Error(err))
			return err
		}

		log.Info("Индексы успешно созданы")
	}

	log.Info("Миграция базы данных заказов оборудования успешно завершена")
	return nil
}
