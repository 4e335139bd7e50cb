package upload

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"

	"mosprom-backend/internal/audit"
	"mosprom-backend/internal/auth"
	"mosprom-backend/internal/cache"
	"mosprom-backend/internal/config"
	"mosprom-backend/internal/database"
	"mosprom-backend/internal/excel"
	"mosprom-backend/internal/models"
)

// GET /upload
func PageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Render("upload", fiber.Map{})
	}
}

// UploadHandler принимает файл реестра и загружает его в базу.
// Файл временно сохраняется на диск, после обработки удаляется.
// После успешной загрузки сбрасывается кэш аналитики.
//
// POST /upload
func UploadHandler(cfg *config.Config, cacheClient *cache.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Файл не передан")
		}

		name := strings.ToLower(fileHeader.Filename)
		if !strings.HasSuffix(name, ".xlsx") && !strings.HasSuffix(name, ".xls") {
			return fiber.NewError(fiber.StatusBadRequest, "Допускаются только файлы .xlsx и .xls")
		}

		if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Не удалось сохранить файл")
		}

		timestamp := time.Now().Format("20060102_150405")
		path := filepath.Join(cfg.UploadDir, fmt.Sprintf("upload_%s_%s", timestamp, filepath.Base(fileHeader.Filename)))
		if err := c.SaveFile(fileHeader, path); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Не удалось сохранить файл")
		}
		defer func() {
			if err := os.Remove(path); err != nil {
				log.Printf("upload cleanup failed: %v", err)
			}
		}()
		log.Printf("upload saved: %s", path)

		f, err := excelize.OpenFile(path)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError,
				"ОШИБКА: Не удалось открыть Excel файл. Убедитесь, что файл не поврежден")
		}
		defer f.Close()

		result, err := excel.ImportWorkbook(database.DB, f)
		if err != nil {
			log.Printf("upload processing failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, importErrorMessage(err))
		}
		log.Printf("upload processed: new=%d updated=%d skipped=%d errors=%d",
			result.OrganizationsNew, result.OrganizationsUpdated, result.RowsSkipped, result.ErrorCount)

		if cacheClient != nil {
			cacheClient.ClearPattern(context.Background(), "analytics:*")
		}

		userID, userName := auth.Actor(c)
		_ = audit.WriteLog(audit.LogOptions{
			UserID:     userID,
			UserName:   userName,
			EntityType: "import",
			Action:     models.AuditActionImport,
			Description: fmt.Sprintf("Импорт реестра %s: создано %d, обновлено %d, пропущено %d",
				fileHeader.Filename, result.OrganizationsNew, result.OrganizationsUpdated, result.RowsSkipped),
			After: result,
		})

		return c.JSON(result)
	}
}

// importErrorMessage переводит типовые ошибки базы в понятные
// пользователю формулировки.
func importErrorMessage(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "invalid input syntax for type integer"):
		return "ОШИБКА: В числовую колонку попало текстовое значение. Проверьте колонки с числовыми данными"
	case strings.Contains(msg, "foreign key constraint"):
		return "ОШИБКА: Нарушена целостность базы данных"
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"):
		return "ОШИБКА: Некоторые ИНН уже существуют в базе"
	case strings.Contains(msg, "not-null constraint"):
		return "ОШИБКА: Отсутствует ИНН или Название у одного или нескольких предприятий"
	case strings.Contains(msg, "no such file"), strings.Contains(msg, "cannot open"):
		return "ОШИБКА: Не удалось открыть Excel файл. Убедитесь, что файл не поврежден"
	}
	if len(err.Error()) > 200 {
		return "ОШИБКА ОБРАБОТКИ: " + err.Error()[:200]
	}
	return "ОШИБКА ОБРАБОТКИ: " + err.Error()
}
