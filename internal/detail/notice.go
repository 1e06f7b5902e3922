package detail

import (
	"sync"
	"time"
)

// NoticeLevel selects how a notice is shown.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	// NoticeAlert is a blocking alert.
	NoticeAlert NoticeLevel = "alert"
	NoticeError NoticeLevel = "error"
)

// maxNotices bounds the notice history kept per view.
const maxNotices = 20

// User facing texts.
const (
	MsgEmptyText         = "Нет текста документа для анализа"
	MsgAnalysisFailed    = "Ошибка при анализе документа. Попробуйте еще раз."
	MsgLoadFailed        = "Не удалось загрузить анализ документа"
	MsgGenerated         = "Документ успешно сгенерирован и скачан"
	MsgGenerateFailed    = "Ошибка при генерации документа"
	MsgDownloadFailed    = "Документ сгенерирован, но скачивание недоступно"
	LabelGenerate        = "Сгенерировать документ"
	LabelGenerating      = "Генерация..."
	LabelStartAnalysis   = "Запустить анализ"
	DefaultGeneratedName = "legal-document.txt"
)

// Notice is a message for the user. IDs grow monotonically per view so a
// client can tell which ones it has already shown.
type Notice struct {
	ID    int64       `json:"id"`
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
	At    time.Time   `json:"at"`
}

type noticeBoard struct {
	mu     sync.Mutex
	nextID int64
	items  []Notice
}

func (b *noticeBoard) add(level NoticeLevel, text string, at time.Time) Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	n := Notice{ID: b.nextID, Level: level, Text: text, At: at}
	b.items = append(b.items, n)
	if len(b.items) > maxNotices {
		b.items = b.items[len(b.items)-maxNotices:]
	}
	return n
}

// since returns the notices newer than id.
func (b *noticeBoard) since(id int64) []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []Notice{}
	for _, n := range b.items {
		if n.ID > id {
			out = append(out, n)
		}
	}
	return out
}
