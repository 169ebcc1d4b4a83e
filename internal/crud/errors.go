package crud

import "errors"

var (
	// ErrNotFound запись с указанным ключом не найдена
	ErrNotFound = errors.New("record not found")
	// ErrUnknownField поле не объявлено в ресурсе
	ErrUnknownField = errors.New("unknown field")
)

// Сообщения результатов
const (
	MsgCreated          = "created successfully"
	MsgUpdated          = "updated successfully"
	MsgNoneDeleted      = "no records deleted"
	MsgSelectToDelete   = "select records to delete"
	MsgFieldForbidden   = "field is not allowed to be changed"
	MsgFieldProtected   = "field cannot be changed on a protected record"
	MsgStatusUpdated    = "status updated successfully"
	MsgSortUpdated      = "sort updated successfully"
	MsgExportNotAllowed = "export is not implemented"
)
