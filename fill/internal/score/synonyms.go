package score

import "github.com/hazyhaar/formfill/profile"

// synonyms lists the label phrases observed per field type, English and
// Turkish. Phrases are tokenized at Scorer construction; matching happens
// per token, so "maaş beklentisi" also fires on a bare "maaş" label.
var synonyms = map[profile.Field][]string{
	profile.FirstName: {
		"first name", "given name", "forename",
		"ad", "isim", "adınız",
	},
	profile.LastName: {
		"last name", "surname", "family name",
		"soyad", "soyadı", "soyisim", "soyadınız",
	},
	profile.FullName: {
		"full name", "name", "complete name",
		"ad soyad", "adınız soyadınız", "isim soyisim", "tam ad",
	},
	profile.Email: {
		"email", "e-mail", "email address", "mail",
		"eposta", "e-posta", "eposta adresi", "mail adresi",
	},
	profile.Phone: {
		"phone", "telephone", "mobile", "cell", "phone number",
		"telefon", "cep", "gsm", "telefon numarası", "cep telefonu",
	},
	profile.DateOfBirth: {
		"date of birth", "birth date", "birthday", "dob",
		"doğum tarihi", "doğum günü",
	},
	profile.Address: {
		"address", "street address", "address line",
		"adres", "açık adres", "sokak",
	},
	profile.City: {
		"city", "town",
		"şehir", "il", "ilçe",
	},
	profile.State: {
		"state", "province", "region", "county",
		"eyalet", "bölge",
	},
	profile.PostalCode: {
		"postal code", "zip", "zip code", "postcode",
		"posta kodu",
	},
	profile.Country: {
		"country", "nation",
		"ülke",
	},
	profile.LinkedIn: {
		"linkedin", "linkedin profile", "linkedin url",
		"linkedin profili", "linkedin adresi",
	},
	profile.GitHub: {
		"github", "github profile", "github url",
		"github profili",
	},
	profile.Website: {
		"website", "web site", "personal site", "homepage", "portfolio",
		"web sitesi", "kişisel site", "internet sitesi",
	},
	profile.Company: {
		"company", "employer", "organization", "current company",
		"şirket", "firma", "kurum", "çalıştığınız şirket",
	},
	profile.JobTitle: {
		"job title", "position", "role",
		"ünvan", "unvan", "pozisyon", "görev",
	},
	profile.Salary: {
		"salary", "salary expectation", "expected salary", "compensation",
		"maaş", "ücret", "maaş beklentisi", "ücret beklentisi",
	},
	profile.NoticePeriod: {
		"notice period",
		"ihbar süresi", "işe başlama tarihi",
	},
	profile.CoverLetter: {
		"cover letter", "motivation letter", "message",
		"ön yazı", "niyet mektubu", "açıklama",
	},
}
