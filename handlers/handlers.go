package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"bitbucket.org/mmdatafocus/loanops_backend/config"
	"bitbucket.org/mmdatafocus/loanops_backend/fineract"
	"bitbucket.org/mmdatafocus/loanops_backend/models"
	"bitbucket.org/mmdatafocus/loanops_backend/reports"
	"bitbucket.org/mmdatafocus/loanops_backend/storage"
	"bitbucket.org/mmdatafocus/loanops_backend/utils"
	"bitbucket.org/mmdatafocus/loanops_backend/workflow"
	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	ServerURL string `json:"server_url" binding:"required"`
	TenantId  string `json:"tenant_id" binding:"required"`
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

type UndoRequest struct {
	LoanId     int    `json:"loan_id" binding:"required"`
	CutoffDate string `json:"cutoff_date" binding:"required"`
}

// LoginHandler verifies the operator's credentials against the ledger, stores
// the connection settings, and issues a session token for the API.
func LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		user, err := fineract.Authenticate(c.Request.Context(), req.ServerURL, req.TenantId, req.Username, req.Password)
		if err != nil {
			message := "Authentication failed"
			if utils.IsConnectivityError(err) {
				message = "Cannot connect to server: " + req.ServerURL
			} else if text := utils.ErrorText(err); text != "" {
				message = text
			}
			c.JSON(http.StatusOK, gin.H{"success": false, "message": message})
			return
		}

		baseURL := fineract.APIBaseURL(req.ServerURL)
		authToken := fineract.BasicAuthToken(req.Username, req.Password)
		if err := config.SaveLedgerCredentials(baseURL, req.TenantId, authToken); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		token, err := utils.JwtGenerate(req.Username, req.TenantId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		username := user.Username
		if username == "" {
			username = req.Username
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Login successful",
			"user":    username,
			"tenant":  req.TenantId,
			"token":   token,
		})
	}
}

func LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := config.ClearLedgerCredentials(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
	}
}

func AuthStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"authenticated": config.GetLedgerConfig().Validate() == nil,
		})
	}
}

// UndoHandler runs a full undo session: create the session folder, identify
// targets, reverse them one at a time, persist outcomes.
func UndoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UndoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "loan_id and cutoff_date are required"})
			return
		}

		cfg := config.GetLedgerConfig()
		if err := cfg.Validate(); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		sessionDir, err := storage.NewSessionDir(config.DataDir(), req.LoanId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		gateway := fineract.NewClient(cfg)
		store := storage.NewStore(sessionDir)

		result, err := workflow.UndoTransactionsByDate(c.Request.Context(), gateway, store, req.LoanId, req.CutoffDate)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"message":       fmt.Sprintf("Processed %d transactions", len(result.Outcomes)),
			"success_count": result.SuccessCount,
			"failure_count": result.FailureCount,
			"transactions":  result.Outcomes,
			"session":       filepath.Base(sessionDir),
		})
	}
}

// ExportExcelHandler exports the latest session's records as a spreadsheet
// download for manual correction.
func ExportExcelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		store, sessionDir, ok := latestSessionStore(c)
		if !ok {
			return
		}

		records, err := store.LoadTransactions()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if len(records) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "no transactions found to export"})
			return
		}

		if err := reports.ExportExcel(records, store.ExportPath()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		filename := fmt.Sprintf("transactions_%s.xlsx", filepath.Base(sessionDir))
		c.FileAttachment(store.ExportPath(), filename)
	}
}

// ImportExcelHandler accepts the corrected spreadsheet and stores its records
// in the latest session, replacing the captured set for replay.
func ImportExcelHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		store, sessionDir, ok := latestSessionStore(c)
		if !ok {
			return
		}

		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if err := c.SaveUploadedFile(file, store.CorrectedPath()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		records, err := reports.ImportExcel(store.CorrectedPath())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		validCount := 0
		for _, rec := range records {
			if reports.ValidateRecord(rec) {
				validCount++
			}
		}

		if err := store.SaveTransactions(records); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"message":       fmt.Sprintf("Imported %d transactions to session", len(records)),
			"total_count":   len(records),
			"valid_count":   validCount,
			"invalid_count": len(records) - validCount,
			"session":       filepath.Base(sessionDir),
		})
	}
}

// ReplayHandler re-creates the latest session's valid records on the ledger
// in date order.
func ReplayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := config.GetLedgerConfig()
		if err := cfg.Validate(); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		store, _, ok := latestSessionStore(c)
		if !ok {
			return
		}

		records, err := store.LoadTransactions()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if len(records) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "no transactions found to replay"})
			return
		}

		valid := make([]models.TransactionOutcome, 0, len(records))
		for _, rec := range records {
			if reports.ValidateRecord(rec) {
				valid = append(valid, rec)
			}
		}
		if len(valid) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no valid transactions to replay"})
			return
		}

		gateway := fineract.NewClient(cfg)
		result, err := workflow.ReplayTransactions(c.Request.Context(), gateway, store, valid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"message":       fmt.Sprintf("Replayed %d transactions", len(result.Results)),
			"success_count": result.SuccessCount,
			"failure_count": result.FailureCount,
			"total_count":   len(result.Results),
		})
	}
}

func StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionDir, err := storage.LatestSessionDir(config.DataDir())
		if err != nil {
			c.JSON(http.StatusOK, gin.H{
				"success":           true,
				"transaction_count": 0,
				"has_transactions":  false,
			})
			return
		}

		records, err := storage.NewStore(sessionDir).LoadTransactions()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":           true,
			"transaction_count": len(records),
			"has_transactions":  len(records) > 0,
			"session":           filepath.Base(sessionDir),
		})
	}
}

func latestSessionStore(c *gin.Context) (*storage.Store, string, bool) {
	sessionDir, err := storage.LatestSessionDir(config.DataDir())
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no session found, run undo first"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, "", false
	}
	return storage.NewStore(sessionDir), sessionDir, true
}
