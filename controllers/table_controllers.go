package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/utils"
	"github.com/yeremiapane/table-reservation/workflow"
)

// TableReader is the read side of the table directory.
type TableReader interface {
	ListTables(ctx context.Context) ([]workflow.TableRecord, error)
	GetTable(ctx context.Context, tableID uint) (workflow.TableRecord, error)
	ListByStatus(ctx context.Context, status workflow.TableStatus) ([]workflow.TableRecord, error)
}

type TableController struct {
	Tables TableReader
}

func NewTableController(tables TableReader) *TableController {
	return &TableController{Tables: tables}
}

type tableResponse struct {
	workflow.TableRecord
	Availability workflow.Availability `json:"availability"`
}

func newTableResponse(t workflow.TableRecord) tableResponse {
	return tableResponse{TableRecord: t, Availability: t.Availability()}
}

func newTableResponses(tables []workflow.TableRecord) []tableResponse {
	out := make([]tableResponse, 0, len(tables))
	for _, t := range tables {
		out = append(out, newTableResponse(t))
	}
	return out
}

// GetAllTables -> menampilkan seluruh meja
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Tables.ListTables(c.Request.Context())
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", newTableResponses(tables))
}

func (tc *TableController) GetTableByID(c *gin.Context) {
	tableID, ok := tableParam(c)
	if !ok {
		return
	}
	table, err := tc.Tables.GetTable(c.Request.Context(), tableID)
	if err != nil {
		utils.RespondError(c, statusFor(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", newTableResponse(table))
}

// FindTablesByStatus -> default meja free
func (tc *TableController) FindTablesByStatus(c *gin.Context) {
	status := workflow.TableStatus(c.DefaultQuery("status", string(workflow.StatusFree)))
	if !status.Valid() {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown status %q", status))
		return
	}
	tables, err := tc.Tables.ListByStatus(c.Request.Context(), status)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tables with status: "+string(status), newTableResponses(tables))
}

// GetStats -> jumlah meja per status
func (tc *TableController) GetStats(c *gin.Context) {
	tables, err := tc.Tables.ListTables(c.Request.Context())
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table stats", workflow.CountTables(tables))
}
