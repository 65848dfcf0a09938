package textnorm

import "testing"

func TestFold(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Giáo trình Điện tử", "giao trinh dien tu"},
		{"  Lập   trình  C++ ", "lap trinh c++"},
		{"An toàn thông tin", "an toan thong tin"},
		{"Nguyễn Văn Đức", "nguyen van duc"},
		{"Clean Code", "clean code"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Fold(tc.in); got != tc.want {
			t.Errorf("Fold(%q) = %q，期望 %q", tc.in, got, tc.want)
		}
	}
}

func TestSearchText(t *testing.T) {
	got := SearchText("Cơ sở dữ liệu", "", "Trần Đình Quế")
	want := "co so du lieu tran dinh que"
	if got != want {
		t.Errorf("SearchText = %q，期望 %q", got, want)
	}
}
