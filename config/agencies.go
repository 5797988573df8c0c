package config

import "fmt"

// agencies are queried on the HTML bulletin portal, in this order.
var agencies = []string{
	"經濟部水利署第一河川分署",
	"農業部農村發展及水土保持署臺北分署",
	"交通部公路局東區養護工程分局",
	"宜蘭縣三星鄉公所",
	"宜蘭縣政府",
	"宜蘭縣大同鄉公所",
	"農田水利署宜蘭",
	"台灣中油股份有限公司探採事業部",
}

// units are queried on the REST mirror, in this order.
var units = []string{
	"宜蘭縣政府",
	"宜蘭縣宜蘭市公所",
	"宜蘭縣羅東鎮公所",
	"宜蘭縣蘇澳鎮公所",
	"宜蘭縣頭城鎮公所",
	"宜蘭縣礁溪鄉公所",
	"宜蘭縣壯圍鄉公所",
	"宜蘭縣員山鄉公所",
	"宜蘭縣五結鄉公所",
	"宜蘭縣冬山鄉公所",
	"宜蘭縣三星鄉公所",
	"宜蘭縣大同鄉公所",
	"宜蘭縣南澳鄉公所",
}

// Agencies returns a copy of the portal agency list.
func Agencies() []string { return append([]string(nil), agencies...) }

// Units returns a copy of the mirror unit list.
func Units() []string { return append([]string(nil), units...) }

// Select narrows all to the names in picked, keeping the order of all.
// An empty pick selects everything; a name not in all is an error.
func Select(all, picked []string) ([]string, error) {
	if len(picked) == 0 {
		return append([]string(nil), all...), nil
	}

	known := make(map[string]struct{}, len(all))
	for _, a := range all {
		known[a] = struct{}{}
	}
	want := make(map[string]struct{}, len(picked))
	for _, p := range picked {
		if _, ok := known[p]; !ok {
			return nil, fmt.Errorf("unknown agency or unit %q", p)
		}
		want[p] = struct{}{}
	}

	out := make([]string, 0, len(want))
	for _, a := range all {
		if _, ok := want[a]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}
