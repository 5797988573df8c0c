package mirror

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"pcc-tenders/models"
)

var errInvalidJSON = errors.New("invalid JSON")

// parseTenders turns a JSON array of tender objects into a RawTable. The
// award member, when it is an object, becomes the row's Award.
func parseTenders(unit string, body []byte) (*models.RawTable, error) {
	if !gjson.ValidBytes(body) {
		return nil, errInvalidJSON
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, ErrNotArray
	}

	table := models.NewRawTable()
	var itemErr error
	index := 0

	root.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			itemErr = fmt.Errorf("element %d is %s, not an object", index, item.Type)
			return false
		}

		row := &models.TenderRow{Agency: unit, Fields: map[string]models.Cell{}}
		item.ForEach(func(key, val gjson.Result) bool {
			name := key.String()
			if name == models.FieldAward {
				row.Award = awardOf(val)
				return true
			}
			table.AddColumn(name)
			row.Fields[name] = cellOf(val)
			return true
		})

		table.AddTender(row)
		index++
		return true
	})
	if itemErr != nil {
		return nil, itemErr
	}

	return table, nil
}

func awardOf(val gjson.Result) models.Award {
	if !val.IsObject() {
		return nil
	}
	award := models.Award{}
	val.ForEach(func(key, sub gjson.Result) bool {
		award[key.String()] = cellOf(sub)
		return true
	})
	return award
}

func cellOf(val gjson.Result) models.Cell {
	switch val.Type {
	case gjson.Null:
		return models.Missing()
	case gjson.String:
		return models.Text(val.String())
	default:
		// numbers and booleans keep their literal form
		return models.Text(val.Raw)
	}
}
