package domain

// ModalKind identifies which dialog, if any, is showing.
type ModalKind int

const (
	ModalClosed ModalKind = iota
	ModalAdd
	ModalDelete
)

func (k ModalKind) String() string {
	switch k {
	case ModalAdd:
		return "add"
	case ModalDelete:
		return "delete"
	default:
		return "closed"
	}
}

// Modal is the dialog state of the board page. The zero value is closed.
// Transitions return a new value so the add and delete dialogs can never be
// open at the same time.
type Modal struct {
	kind     ModalKind
	priority string
	task     Task
}

// OpenAdd shows the add dialog preset to priority.
func (m Modal) OpenAdd(priority string) Modal {
	return Modal{kind: ModalAdd, priority: priority}
}

// OpenDelete shows the delete confirmation for task.
func (m Modal) OpenDelete(task Task) Modal {
	return Modal{kind: ModalDelete, task: task}
}

// Close hides any dialog.
func (m Modal) Close() Modal {
	return Modal{}
}

func (m Modal) Kind() ModalKind { return m.kind }

// Priority is only meaningful while the add dialog is open.
func (m Modal) Priority() string { return m.priority }

// Task is only meaningful while the delete dialog is open.
func (m Modal) Task() Task { return m.task }

func (m Modal) IsAddOpen() bool    { return m.kind == ModalAdd }
func (m Modal) IsDeleteOpen() bool { return m.kind == ModalDelete }
