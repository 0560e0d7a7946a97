// Package statuslist реализует битовый список статусов (draft-ietf-oauth-status-list)
// и токен списка статусов в формате JWT.
package statuslist

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Значения статусов.
const (
	StatusValid     byte = 0x00
	StatusInvalid   byte = 0x01
	StatusSuspended byte = 0x02
)

// StatusList хранит статусы упакованными по bits бит на запись, младшие биты первыми.
type StatusList struct {
	bits int
	size int
	data []byte
}

// New создает список на size записей по bits бит (1, 2, 4 или 8).
func New(size, bits int) (*StatusList, error) {
	if !validBits(bits) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBits, bits)
	}
	if size < 0 {
		return nil, fmt.Errorf("отрицательный размер списка: %d", size)
	}
	return &StatusList{
		bits: bits,
		size: size,
		data: make([]byte, (size*bits+7)/8),
	}, nil
}

func validBits(bits int) bool {
	switch bits {
	case 1, 2, 4, 8:
		return true
	default:
		return false
	}
}

// Len возвращает количество записей.
func (l *StatusList) Len() int { return l.size }

// Bits возвращает количество бит на запись.
func (l *StatusList) Bits() int { return l.bits }

// Bytes возвращает упакованный битовый массив.
func (l *StatusList) Bytes() []byte { return l.data }

// Set устанавливает статус записи i.
func (l *StatusList) Set(i int, value byte) error {
	if i < 0 || i >= l.size {
		return fmt.Errorf("%w: %d (размер %d)", ErrIndexOutOfRange, i, l.size)
	}
	if int(value) >= 1<<l.bits {
		return fmt.Errorf("значение %d не помещается в %d бит", value, l.bits)
	}
	pos := i * l.bits
	shift := uint(pos % 8)
	mask := byte((1<<l.bits)-1) << shift
	l.data[pos/8] = l.data[pos/8]&^mask | value<<shift
	return nil
}

// Get возвращает статус записи i.
func (l *StatusList) Get(i int) (byte, error) {
	if i < 0 || i >= l.size {
		return 0, fmt.Errorf("%w: %d (размер %d)", ErrIndexOutOfRange, i, l.size)
	}
	pos := i * l.bits
	shift := uint(pos % 8)
	return (l.data[pos/8] >> shift) & byte((1<<l.bits)-1), nil
}

// Encode сжимает список zlib и кодирует в base64url без выравнивания (значение claim "lst").
func (l *StatusList) Encode() (string, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", fmt.Errorf("ошибка создания zlib writer: %w", err)
	}
	if _, err = zw.Write(l.data); err != nil {
		return "", fmt.Errorf("ошибка сжатия списка статусов: %w", err)
	}
	if err = zw.Close(); err != nil {
		return "", fmt.Errorf("ошибка завершения сжатия списка статусов: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode восстанавливает список из значения claim "lst".
// Размер списка определяется длиной распакованных данных.
func Decode(bits int, lst string) (*StatusList, error) {
	if !validBits(bits) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBits, bits)
	}
	compressed, err := base64.RawURLEncoding.DecodeString(lst)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %w", ErrInvalidList, err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: zlib: %w", ErrInvalidList, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: zlib: %w", ErrInvalidList, err)
	}
	return &StatusList{bits: bits, size: len(data) * 8 / bits, data: data}, nil
}

// Кастомные ошибки списка статусов.
var (
	ErrInvalidBits     = errors.New("недопустимое количество бит на статус")
	ErrIndexOutOfRange = errors.New("индекс вне диапазона списка")
	ErrInvalidList     = errors.New("некорректный список статусов")
)
