package logger

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// AsyncHook écrit les entrées de log de façon asynchrone pour ne pas bloquer
// le traitement des requêtes. Les entrées sont mises en buffer puis écrites
// vers les writers (fichier, stdout, ...) dans une goroutine dédiée.
type AsyncHook struct {
	writers    []io.Writer
	entries    chan *logrus.Entry
	wg         sync.WaitGroup
	mu         sync.Mutex
	closed     bool
	bufferSize int
}

// NewAsyncHookWithWriters crée un hook asynchrone écrivant vers plusieurs writers.
// bufferSize: taille du buffer d'entrées (1000 par défaut)
func NewAsyncHookWithWriters(writers []io.Writer, bufferSize int) *AsyncHook {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	hook := &AsyncHook{
		writers:    writers,
		entries:    make(chan *logrus.Entry, bufferSize),
		bufferSize: bufferSize,
	}

	hook.wg.Add(1)
	go hook.processEntries()

	return hook
}

// Levels retourne les niveaux traités par ce hook
func (h *AsyncHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire est appelé pour chaque nouvelle entrée. Ne bloque jamais: si le
// buffer est plein, l'entrée est abandonnée.
func (h *AsyncHook) Fire(entry *logrus.Entry) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()

	if closed {
		// Hook fermé: écriture synchrone directe (fallback au shutdown)
		data, err := h.formatEntry(entry)
		if err != nil {
			return err
		}
		for _, writer := range h.writers {
			_, _ = writer.Write(data)
		}
		return nil
	}

	select {
	case h.entries <- entry:
	default:
		// Buffer plein: on abandonne l'entrée plutôt que de bloquer.
		// Pas de log ici, sinon boucle infinie.
	}

	return nil
}

func (h *AsyncHook) formatEntry(entry *logrus.Entry) ([]byte, error) {
	if entry.Logger != nil && entry.Logger.Formatter != nil {
		return entry.Logger.Formatter.Format(entry)
	}
	line, err := entry.String()
	if err != nil {
		return nil, err
	}
	return []byte(line), nil
}

// processEntries consomme le channel dans une goroutine dédiée
func (h *AsyncHook) processEntries() {
	defer h.wg.Done()

	for entry := range h.entries {
		data, err := h.formatEntry(entry)
		if err != nil {
			continue
		}

		for _, writer := range h.writers {
			if _, err := writer.Write(data); err != nil {
				// Impossible de logger l'erreur ici, on passe au writer suivant
				continue
			}
		}
	}
}

// Close ferme le hook et attend le drainage des entrées en attente
func (h *AsyncHook) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	close(h.entries)
	h.wg.Wait()
	return nil
}
