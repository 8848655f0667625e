// Package harness runs conformance suites against the translator.
//
// # Suite Format
//
// Suites are YAML files. Each case gives a SQL statement and the output
// expected from each renderer, or the kind of error expected instead:
//
//	name: filters
//	description: "WHERE clause translation"
//	cases:
//	  - name: equal
//	    sql: select * from books where title = 'Cheese'
//	    http: /books?title=eq.Cheese
//	    js: |-
//	      const { data, error } = await supabase
//	        .from('books')
//	        .select()
//	        .eq('title', 'Cheese')
//	  - name: offset only
//	    sql: select * from books offset 10
//	    http: /books?offset=10
//	    js_error: render
//	  - name: having
//	    sql: select count(*) from books having count(*) > 1
//	    error: unsupported
//
// An empty http or js field is not checked. Error kinds are the values of
// sqlerr.Kind: parsing, unsupported, unimplemented and render.
//
// # Usage
//
//	suite, err := harness.LoadSuite("testdata/cases/filters.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result := harness.Run(ctx, suite)
//	if !result.Pass {
//	    for _, c := range result.Failed() {
//	        log.Println(c.Name, c.Errors)
//	    }
//	}
//
// Update fills a suite's expectations from a result, which is how the
// check command's --update flag records new output.
package harness
